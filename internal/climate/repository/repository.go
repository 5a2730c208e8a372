package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"climate-api/internal/climate/types"
	"climate-api/internal/db"
)

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-temperature-observations.sql
var getTemperatureObservationsSQL string

//go:embed sql/get-temperature-summary-from.sql
var getTemperatureSummaryFromSQL string

//go:embed sql/get-temperature-summary-range.sql
var getTemperatureSummaryRangeSQL string

// Querier is the subset of *sql.DB, *sql.Conn and *db.Session used by the repository.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ClimateRepository runs the climate queries. Dates are YYYY-MM-DD strings and
// are compared lexically by the database.
type ClimateRepository interface {
	// LatestDate returns MAX(date); ok is false when measurement is empty.
	LatestDate(ctx context.Context) (date string, ok bool, err error)
	// MostActiveStation returns the station with the most measurements, ties
	// broken by station id ascending; ok is false when measurement is empty.
	MostActiveStation(ctx context.Context) (station string, ok bool, err error)
	GetPrecipitation(ctx context.Context, since string) ([]types.Precipitation, error)
	GetStations(ctx context.Context) ([]types.Station, error)
	GetTemperatureObservations(ctx context.Context, station string, since string) ([]types.TemperatureObservation, error)
	// GetTemperatureSummary aggregates tobs over date >= start, and date <= end
	// unless end is empty.
	GetTemperatureSummary(ctx context.Context, start string, end string) (types.TemperatureSummary, error)
}

// Session is a ClimateRepository bound to one borrowed connection.
type Session interface {
	ClimateRepository
	Close() error
}

// Provider hands out a fresh Session per unit of work.
type Provider interface {
	Acquire(ctx context.Context) (Session, error)
}

type repositoryImpl struct {
	q Querier
}

func NewRepository(q Querier) ClimateRepository {
	return &repositoryImpl{q: q}
}

type storeProvider struct {
	store *db.Store
}

func NewProvider(store *db.Store) Provider {
	return &storeProvider{store: store}
}

func (p *storeProvider) Acquire(ctx context.Context) (Session, error) {
	sess, err := p.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	return &sessionRepository{repositoryImpl: repositoryImpl{q: sess}, sess: sess}, nil
}

type sessionRepository struct {
	repositoryImpl
	sess *db.Session
}

func (s *sessionRepository) Close() error {
	return s.sess.Close()
}

func (r *repositoryImpl) LatestDate(ctx context.Context) (string, bool, error) {
	var date *string
	if err := r.q.QueryRowContext(ctx, getLatestDateSQL).Scan(&date); err != nil {
		return "", false, fmt.Errorf("latest date: %w", err)
	}
	if date == nil || *date == "" {
		return "", false, nil
	}
	return *date, true, nil
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (string, bool, error) {
	var station string
	err := r.q.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&station)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("most active station: %w", err)
	}
	return station, true, nil
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context, since string) ([]types.Precipitation, error) {
	rows, err := r.q.QueryContext(ctx, getPrecipitationSQL, since)
	if err != nil {
		return nil, fmt.Errorf("precipitation: %w", err)
	}
	defer closeRows(rows, "precipitation")

	out := []types.Precipitation{}
	for rows.Next() {
		var rec types.Precipitation
		if err := rows.Scan(&rec.Date, &rec.Prcp); err != nil {
			return nil, fmt.Errorf("scan precipitation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	rows, err := r.q.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	defer closeRows(rows, "stations")

	out := []types.Station{}
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.Station, &s.Name, &s.Latitude, &s.Longitude, &s.Elevation); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetTemperatureObservations(ctx context.Context, station string, since string) ([]types.TemperatureObservation, error) {
	rows, err := r.q.QueryContext(ctx, getTemperatureObservationsSQL, station, since)
	if err != nil {
		return nil, fmt.Errorf("temperature observations: %w", err)
	}
	defer closeRows(rows, "temperature observations")

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var rec types.TemperatureObservation
		if err := rows.Scan(&rec.Date, &rec.Temperature); err != nil {
			return nil, fmt.Errorf("scan temperature observation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetTemperatureSummary(ctx context.Context, start string, end string) (types.TemperatureSummary, error) {
	var row *sql.Row
	if end == "" {
		row = r.q.QueryRowContext(ctx, getTemperatureSummaryFromSQL, start)
	} else {
		row = r.q.QueryRowContext(ctx, getTemperatureSummaryRangeSQL, start, end)
	}

	var s types.TemperatureSummary
	if err := row.Scan(&s.Minimum, &s.Maximum, &s.Average); err != nil {
		return types.TemperatureSummary{}, fmt.Errorf("temperature summary: %w", err)
	}
	return s, nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
