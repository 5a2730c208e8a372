package httpapi

import (
	"log/slog"
	"net/http"

	"climate-api/internal/db"
	"climate-api/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	store  *db.Store
	logger *slog.Logger
}

func NewHealthchecker(store *db.Store, logger *slog.Logger) healthchecker {
	return &healthcheckerImpl{store: store, logger: logger}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.store.Session(ctx)
	if err != nil {
		h.logger.Error("failed to acquire session", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	defer func() {
		if err := sess.Close(); err != nil {
			h.logger.Error("release session", "error", err)
		}
	}()

	var ok int
	if err := sess.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		h.logger.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, store *db.Store, logger *slog.Logger) {
	healthchecker := NewHealthchecker(store, logger)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
