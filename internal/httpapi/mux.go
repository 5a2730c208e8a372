package httpapi

import (
	"log/slog"
	"net/http"

	"climate-api/internal/db"
)

func NewMux(store *db.Store, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	registerHealthcheck(mux, store, logger)
	return mux
}
