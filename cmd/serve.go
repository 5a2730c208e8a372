package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"climate-api/internal/app"
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Start the climate API server",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().String("http-addr", "", "listen address, e.g. :8080")
	cobra.CheckErr(v.BindPFlag("http_addr", serveCmd.Flags().Lookup("http-addr")))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "err", err)
		return err
	}

	logger.Info("shutting down")
	return nil
}
