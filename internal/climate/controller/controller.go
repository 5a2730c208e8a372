package controller

import (
	"context"
	"log/slog"
	"net/http"

	"climate-api/internal/climate/types"
)

// ClimateService is the query surface the handlers depend on.
type ClimateService interface {
	Precipitation(ctx context.Context) ([]types.Precipitation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	TemperatureObservations(ctx context.Context) ([]types.TemperatureObservation, error)
	SummaryFrom(ctx context.Context, start string) (types.TemperatureSummary, error)
	SummaryBetween(ctx context.Context, start string, end string) (types.TemperatureSummary, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
	logger  *slog.Logger
}

func NewClimateController(service ClimateService, logger *slog.Logger) ClimateController {
	if logger == nil {
		logger = slog.Default()
	}
	return &climateControllerImpl{service: service, logger: logger}
}

// RegisterRoutes mounts the API. Literal segments take precedence over the
// {start} wildcard, so /api/v1.0/stations never reaches the summary handler.
func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleRoutes)
	mux.HandleFunc("GET "+routePrecipitation, c.handlePrecipitation)
	mux.HandleFunc("GET "+routeStations, c.handleStations)
	mux.HandleFunc("GET "+routeTobs, c.handleTobs)
	mux.HandleFunc("GET "+routeSummaryFrom, c.handleSummaryFrom)
	mux.HandleFunc("GET "+routeSummaryRange, c.handleSummaryRange)
}
