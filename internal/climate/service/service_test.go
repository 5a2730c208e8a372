package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-api/internal/climate/repository"
	"climate-api/internal/climate/types"
	"climate-api/internal/db"
	"climate-api/internal/migrate"
)

// fakeSession is an in-memory repository.Session that records what it was asked.
type fakeSession struct {
	latest        string
	mostActive    string
	precipitation []types.Precipitation
	stations      []types.Station
	observations  []types.TemperatureObservation
	summary       types.TemperatureSummary
	err           error

	gotSince   string
	gotStation string
	gotStart   string
	gotEnd     string
	closed     int
}

func (f *fakeSession) LatestDate(context.Context) (string, bool, error) {
	return f.latest, f.latest != "", f.err
}

func (f *fakeSession) MostActiveStation(context.Context) (string, bool, error) {
	return f.mostActive, f.mostActive != "", f.err
}

func (f *fakeSession) GetPrecipitation(_ context.Context, since string) ([]types.Precipitation, error) {
	f.gotSince = since
	return f.precipitation, f.err
}

func (f *fakeSession) GetStations(context.Context) ([]types.Station, error) {
	return f.stations, f.err
}

func (f *fakeSession) GetTemperatureObservations(_ context.Context, station string, since string) ([]types.TemperatureObservation, error) {
	f.gotStation, f.gotSince = station, since
	return f.observations, f.err
}

func (f *fakeSession) GetTemperatureSummary(_ context.Context, start string, end string) (types.TemperatureSummary, error) {
	f.gotStart, f.gotEnd = start, end
	return f.summary, f.err
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

type fakeProvider struct {
	sess     *fakeSession
	err      error
	acquired int
}

func (p *fakeProvider) Acquire(context.Context) (repository.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.acquired++
	return p.sess, nil
}

func TestPrecipitation_UsesWindowFromLatestDate(t *testing.T) {
	sess := &fakeSession{latest: "2017-08-23", precipitation: []types.Precipitation{{Date: "2016-08-23"}}}
	prov := &fakeProvider{sess: sess}
	svc := NewService(prov, Options{WindowDays: 365}, nil)

	got, err := svc.Precipitation(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "2016-08-23", sess.gotSince)
	assert.Equal(t, 1, prov.acquired)
	assert.Equal(t, 1, sess.closed)
}

func TestPrecipitation_PinnedReferenceDate(t *testing.T) {
	sess := &fakeSession{latest: "2017-08-23"}
	svc := NewService(&fakeProvider{sess: sess}, Options{WindowDays: 30, ReferenceDate: "2017-03-01"}, nil)

	_, err := svc.Precipitation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2017-01-30", sess.gotSince)
}

func TestPrecipitation_EmptyDataset(t *testing.T) {
	sess := &fakeSession{}
	svc := NewService(&fakeProvider{sess: sess}, Options{}, nil)

	got, err := svc.Precipitation(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, sess.closed)
}

func TestTemperatureObservations_MostActiveStation(t *testing.T) {
	sess := &fakeSession{latest: "2017-08-23", mostActive: "USC00519281"}
	svc := NewService(&fakeProvider{sess: sess}, Options{}, nil)

	_, err := svc.TemperatureObservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USC00519281", sess.gotStation)
	assert.Equal(t, "2016-08-23", sess.gotSince)
	assert.Equal(t, 1, sess.closed)
}

func TestTemperatureObservations_PinnedStation(t *testing.T) {
	sess := &fakeSession{latest: "2017-08-23", mostActive: "USC00519281"}
	svc := NewService(&fakeProvider{sess: sess}, Options{StationID: "USC00519397"}, nil)

	_, err := svc.TemperatureObservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USC00519397", sess.gotStation)
}

func TestSummaryFrom(t *testing.T) {
	sess := &fakeSession{summary: types.TemperatureSummary{}}
	svc := NewService(&fakeProvider{sess: sess}, Options{}, nil)

	_, err := svc.SummaryFrom(context.Background(), "2017-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2017-01-01", sess.gotStart)
	assert.Empty(t, sess.gotEnd, "start-only summary must not carry an upper bound")
}

func TestSummaryBetween_FreshBoundsPerCall(t *testing.T) {
	sess := &fakeSession{}
	svc := NewService(&fakeProvider{sess: sess}, Options{}, nil)
	ctx := context.Background()

	_, err := svc.SummaryBetween(ctx, "2017-01-01", "2017-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2017-01-15", sess.gotEnd)

	_, err = svc.SummaryBetween(ctx, "2017-01-01", "2017-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2017-01-01", sess.gotStart)
	assert.Equal(t, "2017-01-31", sess.gotEnd)
	assert.Equal(t, 2, sess.closed)
}

func TestSummary_InvalidInput(t *testing.T) {
	prov := &fakeProvider{sess: &fakeSession{}}
	svc := NewService(prov, Options{}, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{name: "malformed start", call: func() error { _, err := svc.SummaryFrom(ctx, "01-01-2017"); return err }, want: ErrInvalidDate},
		{name: "impossible day", call: func() error { _, err := svc.SummaryFrom(ctx, "2017-02-30"); return err }, want: ErrInvalidDate},
		{name: "malformed end", call: func() error { _, err := svc.SummaryBetween(ctx, "2017-01-01", "soon"); return err }, want: ErrInvalidDate},
		{name: "reversed range", call: func() error { _, err := svc.SummaryBetween(ctx, "2017-02-01", "2017-01-01"); return err }, want: ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.want)
		})
	}
	assert.Zero(t, prov.acquired, "invalid input must not touch the data source")
}

func TestSessionReleasedOnError(t *testing.T) {
	boom := errors.New("disk I/O error")
	sess := &fakeSession{latest: "2017-08-23", mostActive: "USC00519281", err: boom}
	svc := NewService(&fakeProvider{sess: sess}, Options{}, nil)
	ctx := context.Background()

	_, err := svc.Precipitation(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Stations(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.TemperatureObservations(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = svc.SummaryBetween(ctx, "2017-01-01", "2017-01-31")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 4, sess.closed)
}

func TestAcquireFailure(t *testing.T) {
	boom := errors.New("pool exhausted")
	svc := NewService(&fakeProvider{err: boom}, Options{}, nil)

	_, err := svc.Stations(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		ref  string
		days int
		want string
	}{
		{ref: "2017-08-23", days: 365, want: "2016-08-23"},
		{ref: "2016-03-01", days: 365, want: "2015-03-02"},
		{ref: "2017-01-31", days: 30, want: "2017-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			ref, err := time.Parse(DateLayout, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, WindowStart(ref, tt.days))
		})
	}
}

const fixture = `
INSERT INTO station (station, name) VALUES ('USC00519397', 'WAIKIKI 717.2, HI US'), ('USC00519281', 'WAIHEE 837.5, HI US');
INSERT INTO measurement (station, date, prcp, tobs) VALUES
  ('USC00519397', '2016-08-22', 0.5,  70),
  ('USC00519397', '2016-08-23', 0.08, 81),
  ('USC00519397', '2017-01-05', NULL, 66),
  ('USC00519397', '2017-08-23', 0.0,  81),
  ('USC00519281', '2016-08-21', 0.3,  75),
  ('USC00519281', '2016-08-23', NULL, 77),
  ('USC00519281', '2017-01-01', 0.2,  62),
  ('USC00519281', '2017-01-15', 0.0,  70),
  ('USC00519281', '2017-01-31', 0.0,  68),
  ('USC00519281', '2017-02-01', 0.0,  72);
`

func newStoreService(t *testing.T, opts Options) *Service {
	t.Helper()
	conn, err := sql.Open(db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "hawaii.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = migrate.Run(context.Background(), conn, db.DriverSQLite, nil)
	require.NoError(t, err)
	_, err = conn.Exec(fixture)
	require.NoError(t, err)

	store := db.NewStore(conn, db.DriverSQLite)
	t.Cleanup(func() { assert.Zero(t, store.DB().Stats().InUse, "leaked session") })
	return NewService(repository.NewProvider(store), opts, nil)
}

func TestStore_PrecipitationWindowBoundary(t *testing.T) {
	svc := newStoreService(t, Options{WindowDays: 365})

	got, err := svc.Precipitation(context.Background())
	require.NoError(t, err)

	dates := make([]string, 0, len(got))
	for _, p := range got {
		assert.GreaterOrEqual(t, p.Date, "2016-08-23")
		dates = append(dates, p.Date)
	}
	assert.ElementsMatch(t, []string{
		"2016-08-23", "2016-08-23", "2017-01-05", "2017-08-23",
		"2017-01-01", "2017-01-15", "2017-01-31", "2017-02-01",
	}, dates)
}

func TestStore_Properties(t *testing.T) {
	svc := newStoreService(t, Options{WindowDays: 365})
	ctx := context.Background()

	jan, err := svc.SummaryBetween(ctx, "2017-01-01", "2017-01-31")
	require.NoError(t, err)
	require.NotNil(t, jan.Minimum)
	// 62, 66, 70, 68
	assert.Equal(t, 62.0, *jan.Minimum)
	assert.Equal(t, 70.0, *jan.Maximum)
	assert.InDelta(t, 66.5, *jan.Average, 1e-9)
	assert.LessOrEqual(t, *jan.Minimum, *jan.Average)
	assert.LessOrEqual(t, *jan.Average, *jan.Maximum)

	narrow, err := svc.SummaryBetween(ctx, "2017-01-01", "2017-01-10")
	require.NoError(t, err)
	assert.NotEqual(t, jan, narrow, "changing end must change the result")

	from, err := svc.SummaryFrom(ctx, "2017-02-01")
	require.NoError(t, err)
	require.NotNil(t, from.Maximum)
	assert.Equal(t, 81.0, *from.Maximum)

	none, err := svc.SummaryFrom(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.Equal(t, types.TemperatureSummary{}, none)

	obs, err := svc.TemperatureObservations(ctx)
	require.NoError(t, err)
	assert.Len(t, obs, 5)

	stations, err := svc.Stations(ctx)
	require.NoError(t, err)
	assert.Len(t, stations, 2)
}
