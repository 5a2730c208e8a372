package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climate-api/internal/climate/repository"
	"climate-api/internal/climate/types"
)

// DateLayout is the only accepted date format, for path segments and stored dates alike.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("start date is after end date")
)

type Options struct {
	// WindowDays is subtracted from the reference date to get the window cutoff.
	WindowDays int
	// ReferenceDate pins the window end; empty means MAX(date).
	ReferenceDate string
	// StationID pins the tobs station; empty means the most active station.
	StationID string
}

// Service answers the climate queries. Every call acquires its own session
// and releases it before returning.
type Service struct {
	provider repository.Provider
	opts     Options
	logger   *slog.Logger
}

func NewService(provider repository.Provider, opts Options, logger *slog.Logger) *Service {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 365
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, opts: opts, logger: logger}
}

// Precipitation returns every measurement on or after the window cutoff.
func (s *Service) Precipitation(ctx context.Context) ([]types.Precipitation, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	cutoff, ok, err := s.cutoff(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.Precipitation{}, nil
	}
	return sess.GetPrecipitation(ctx, cutoff)
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	return sess.GetStations(ctx)
}

// TemperatureObservations returns the window's observations for the most
// active station.
func (s *Service) TemperatureObservations(ctx context.Context) ([]types.TemperatureObservation, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(sess)

	cutoff, ok, err := s.cutoff(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.TemperatureObservation{}, nil
	}

	station := s.opts.StationID
	if station == "" {
		station, ok, err = sess.MostActiveStation(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []types.TemperatureObservation{}, nil
		}
	}
	return sess.GetTemperatureObservations(ctx, station, cutoff)
}

// SummaryFrom aggregates tobs over date >= start with no upper bound.
func (s *Service) SummaryFrom(ctx context.Context, start string) (types.TemperatureSummary, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	return s.summary(ctx, startDate.Format(DateLayout), "")
}

// SummaryBetween aggregates tobs over start <= date <= end, both inclusive.
func (s *Service) SummaryBetween(ctx context.Context, start string, end string) (types.TemperatureSummary, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	if startDate.After(endDate) {
		return types.TemperatureSummary{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return s.summary(ctx, startDate.Format(DateLayout), endDate.Format(DateLayout))
}

func (s *Service) summary(ctx context.Context, start string, end string) (types.TemperatureSummary, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return types.TemperatureSummary{}, err
	}
	defer s.release(sess)

	return sess.GetTemperatureSummary(ctx, start, end)
}

// ParseDate accepts a YYYY-MM-DD calendar date and wraps ErrInvalidDate otherwise.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q (expected YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

// WindowStart returns reference minus days in calendar arithmetic, formatted as a date.
func WindowStart(reference time.Time, days int) string {
	return reference.AddDate(0, 0, -days).Format(DateLayout)
}

// cutoff resolves the window start. ok is false when there is no reference
// date, i.e. the measurement table is empty and no date is pinned.
func (s *Service) cutoff(ctx context.Context, sess repository.Session) (string, bool, error) {
	ref := s.opts.ReferenceDate
	if ref == "" {
		latest, ok, err := sess.LatestDate(ctx)
		if err != nil || !ok {
			return "", false, err
		}
		ref = latest
	}
	if len(ref) > len(DateLayout) {
		// Some engines render DATE/TIMESTAMP columns with a time suffix.
		ref = ref[:len(DateLayout)]
	}
	refDate, err := time.Parse(DateLayout, ref)
	if err != nil {
		return "", false, fmt.Errorf("reference date %q: %w", ref, err)
	}
	return WindowStart(refDate, s.opts.WindowDays), true, nil
}

func (s *Service) acquire(ctx context.Context) (repository.Session, error) {
	sess, err := s.provider.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	return sess, nil
}

func (s *Service) release(sess repository.Session) {
	if err := sess.Close(); err != nil {
		s.logger.Error("release session", "error", err)
	}
}
