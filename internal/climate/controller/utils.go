package controller

import (
	"errors"
	"strings"

	"climate-api/internal/climate/service"
)

const (
	routePrecipitation = "/api/v1.0/precipitation"
	routeStations      = "/api/v1.0/stations"
	routeTobs          = "/api/v1.0/tobs"
	routeSummaryFrom   = "/api/v1.0/{start}"
	routeSummaryRange  = "/api/v1.0/{start}/{end}"
)

var listedRoutes = []string{
	routePrecipitation,
	routeStations,
	routeTobs,
	routeSummaryFrom,
	routeSummaryRange,
}

// routeListing renders the body served at /.
func routeListing() string {
	var b strings.Builder
	b.WriteString("Available routes:\n")
	for _, r := range listedRoutes {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return b.String()
}

// isClientError reports whether err comes from bad path input rather than the data source.
func isClientError(err error) bool {
	return errors.Is(err, service.ErrInvalidDate) || errors.Is(err, service.ErrInvalidRange)
}
