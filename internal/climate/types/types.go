package types

// Station mirrors one row of the station table. Nullable columns stay nil and
// are rendered as JSON null.
type Station struct {
	Station   string   `json:"station"`
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

type Precipitation struct {
	Date string   `json:"date"`
	Prcp *float64 `json:"prcp"`
}

type TemperatureObservation struct {
	Date        string   `json:"date"`
	Temperature *float64 `json:"temperature"`
}

// TemperatureSummary holds MIN/MAX/AVG of tobs over a date filter. All three
// are nil when no rows match.
type TemperatureSummary struct {
	Minimum *float64 `json:"minimum_temperature"`
	Maximum *float64 `json:"maximum_temperature"`
	Average *float64 `json:"average_temperature"`
}
