package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"climate-api/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Wrap(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// Wrap applies the middleware chain used by NewServer.
func Wrap(h http.Handler, logger *slog.Logger) http.Handler {
	return requestLogger(logger, recoverer(logger, h))
}
