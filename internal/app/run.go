package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"climate-api/internal/climate"
	"climate-api/internal/climate/service"
	"climate-api/internal/config"
	"climate-api/internal/db"
	"climate-api/internal/httpapi"
	"climate-api/internal/migrate"
)

const shutdownTimeout = 10 * time.Second

// Run serves the climate API until ctx is cancelled. The data source is opened
// read-only and never migrated here.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logConfig(logger, cfg)

	dbConn, err := db.Open(cfg, db.ReadOnly, logger)
	if err != nil {
		return err
	}
	store := db.NewStore(dbConn, cfg.Driver)
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()
	logger.Info("database connection successful")

	srv := NewServer(cfg, store, logger)
	return serve(ctx, srv, logger)
}

// NewServer builds the HTTP server with every route registered.
func NewServer(cfg config.Config, store *db.Store, logger *slog.Logger) *http.Server {
	mux := httpapi.NewMux(store, logger)
	climate.RegisterFeature(mux, store, service.Options{
		WindowDays:    cfg.WindowDays,
		ReferenceDate: cfg.ReferenceDate,
		StationID:     cfg.StationID,
	}, logger)
	return httpapi.NewServer(cfg, mux, logger)
}

// Migrate opens the data source read-write and applies pending migrations.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	dbConn, err := db.Open(cfg, db.ReadWrite, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	n, err := migrate.Run(ctx, dbConn, cfg.Driver, logger)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "applied", n)
	return nil
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

func logConfig(logger *slog.Logger, cfg config.Config) {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dbDSNSet", cfg.DSN != "",
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogQueries", cfg.LogQueries,
		"windowDays", cfg.WindowDays,
		"referenceDate", cfg.ReferenceDate,
		"stationID", cfg.StationID,
	)
}
