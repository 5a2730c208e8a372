package controller

import (
	"net/http"

	"climate-api/internal/climate/types"
	"climate-api/internal/utils"
)

func (c *climateControllerImpl) handleRoutes(w http.ResponseWriter, r *http.Request) {
	utils.WriteText(w, http.StatusOK, routeListing())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	records, err := c.service.Precipitation(r.Context())
	if err != nil {
		c.logger.Error("precipitation: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, records)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		c.logger.Error("stations: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.TemperatureObservations(r.Context())
	if err != nil {
		c.logger.Error("tobs: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature observations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleSummaryFrom(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	summary, err := c.service.SummaryFrom(r.Context(), start)
	c.writeSummary(w, summary, err, "start", start)
}

func (c *climateControllerImpl) handleSummaryRange(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	summary, err := c.service.SummaryBetween(r.Context(), start, end)
	c.writeSummary(w, summary, err, "start", start, "end", end)
}

// writeSummary renders a summary as a one-element array; keys are present
// even when no rows matched.
func (c *climateControllerImpl) writeSummary(w http.ResponseWriter, summary types.TemperatureSummary, err error, attrs ...any) {
	if err != nil {
		if isClientError(err) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		c.logger.Error("summary: query failed", append(attrs, "error", err)...)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, []types.TemperatureSummary{summary})
}
