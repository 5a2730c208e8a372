package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"climate-api/internal/config"
	"climate-api/internal/logging"
)

var (
	cfgFile string
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:          appName,
	Short:        "Read-only JSON API over a climate observation dataset",
	SilenceUsage: true,
	// Running the binary without a subcommand serves the API.
	RunE: runServe,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/climate-api/config.toml or $HOME/.climate-api/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver: sqlite3 or pgx")
	rootCmd.PersistentFlags().String("db-dsn", "", "full data source name; overrides --sqlite-path")
	rootCmd.PersistentFlags().String("sqlite-path", "", "path to the SQLite dataset")
	rootCmd.PersistentFlags().Bool("db-log-queries", false, "log every SQL statement at debug level")

	for key, flag := range map[string]string{
		"log_level":      "log-level",
		"db_driver":      "db-driver",
		"db_dsn":         "db-dsn",
		"sqlite_path":    "sqlite-path",
		"db_log_queries": "db-log-queries",
	} {
		cobra.CheckErr(v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)))
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath("/etc/" + appName)
		v.AddConfigPath("$HOME/." + appName)
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err == nil {
		slog.Default().LogAttrs(context.Background(), slog.LevelInfo, "Using config file", slog.String("config", v.ConfigFileUsed()))
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	logger.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)
	return cfg, logger, nil
}
