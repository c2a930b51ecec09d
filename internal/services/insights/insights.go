// Package insights serves statistics reports computed from a user's work logs,
// caching them between changes.
package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/cache"
	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/heatmap"
	"github.com/benvon/lockin/internal/stats"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkHoursSource loads the date to hours mapping of a user.
type WorkHoursSource interface {
	HoursByUser(ctx context.Context, userID uuid.UUID) (map[string]float64, error)
}

var _ WorkHoursSource = (database.WorkLogRepositoryInterface)(nil)

// Query selects which report variant to compute.
type Query struct {
	Year     int
	Settings stats.GrindSettings
	Birth    *time.Time
	Location *time.Location
}

// Service computes reports. A nil cache disables caching.
type Service struct {
	hours  WorkHoursSource
	cache  cache.ReportCache
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(hours WorkHoursSource, reports cache.ReportCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{hours: hours, cache: reports, logger: logger, now: time.Now}
}

func (s *Service) clock(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return s.now().In(loc)
}

func (q Query) key(userID uuid.UUID, now time.Time) cache.StatsKey {
	k := cache.StatsKey{
		UserID:   userID,
		Year:     q.Year,
		Day:      now.Format(stats.DateLayout) + "@" + now.Location().String(),
		Settings: q.Settings,
	}
	if q.Birth != nil {
		k.Birth = q.Birth.Format(stats.DateLayout)
	}
	return k
}

// Report returns the cached report for q or computes and caches it.
// Cache failures are logged and never fail the request. The elapsed
// percentages depend on the clock, not the data, and are filled per call.
func (s *Service) Report(ctx context.Context, userID uuid.UUID, q Query) (*stats.Report, error) {
	now := s.clock(q.Location)
	if q.Year == 0 {
		q.Year = now.Year()
	}
	key := q.key(userID, now)

	var version int64
	cacheable := s.cache != nil
	if cacheable {
		report, err := s.cache.Get(ctx, key)
		if err == nil {
			return stampElapsed(report, q, now), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("stats_cache_read_failed", zap.Error(err))
		}
		if version, err = s.cache.Version(ctx, userID); err != nil {
			s.logger.Warn("stats_cache_version_failed", zap.Error(err))
			cacheable = false
		}
	}

	report, err := s.compute(ctx, userID, q, now)
	if err != nil {
		return nil, err
	}

	if cacheable {
		err := s.cache.Set(ctx, key, version, report)
		switch {
		case errors.Is(err, cache.ErrSuperseded):
			s.logger.Debug("stats_cache_write_superseded", zap.String("user_id", userID.String()))
		case err != nil:
			s.logger.Warn("stats_cache_write_failed", zap.Error(err))
		}
	}
	return stampElapsed(report, q, now), nil
}

func stampElapsed(r *stats.Report, q Query, now time.Time) *stats.Report {
	r.YearElapsed = stats.YearElapsed(now)
	r.LifeElapsed = nil
	if q.Birth != nil {
		life := stats.LifeElapsed(*q.Birth, now)
		r.LifeElapsed = &life
	}
	return r
}

// Refresh drops every cached variant of the user and warms the default one.
func (s *Service) Refresh(ctx context.Context, userID uuid.UUID, year int) error {
	if err := s.Invalidate(ctx, userID); err != nil {
		return err
	}
	_, err := s.Report(ctx, userID, Query{Year: year, Settings: stats.DefaultGrindSettings})
	return err
}

// Invalidate drops every cached report of the user.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, userID)
}

// Heatmap returns the calendar grid of year.
func (s *Service) Heatmap(ctx context.Context, userID uuid.UUID, year int) (*heatmap.Grid, error) {
	if year == 0 {
		year = s.clock(nil).Year()
	}
	h, err := s.hours.HoursByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load work hours: %w", err)
	}
	grid := heatmap.Year(stats.WorkHours(h), year)
	return &grid, nil
}

// Range returns the days-long series shifted back by offset windows.
func (s *Service) Range(ctx context.Context, userID uuid.UUID, days, offset int, loc *time.Location) ([]stats.Day, error) {
	h, err := s.hours.HoursByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load work hours: %w", err)
	}
	return stats.RangeWindow(stats.WorkHours(h), s.clock(loc), days, offset), nil
}

func (s *Service) compute(ctx context.Context, userID uuid.UUID, q Query, now time.Time) (*stats.Report, error) {
	h, err := s.hours.HoursByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load work hours: %w", err)
	}
	report := stats.Summary(stats.WorkHours(h), now, q.Year, q.Settings, q.Birth)
	return &report, nil
}
