package climate

import (
	"log/slog"
	"net/http"

	"climate-api/internal/climate/controller"
	"climate-api/internal/climate/repository"
	"climate-api/internal/climate/service"
	"climate-api/internal/db"
)

func RegisterFeature(mux *http.ServeMux, store *db.Store, opts service.Options, logger *slog.Logger) {
	climateProvider := repository.NewProvider(store)
	climateService := service.NewService(climateProvider, opts, logger)
	climateController := controller.NewClimateController(climateService, logger)
	climateController.RegisterRoutes(mux)
}
