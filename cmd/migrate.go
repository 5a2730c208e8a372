package main

import (
	"github.com/spf13/cobra"

	"climate-api/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Create the station and measurement tables if they do not exist",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := app.Migrate(cmd.Context(), cfg, logger); err != nil {
			logger.Error("migrate failed", "err", err)
			return err
		}
		return nil
	},
}
