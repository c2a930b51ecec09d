package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/stats"
	"github.com/benvon/lockin/internal/store"
	"go.uber.org/zap"
)

// WorkLogAggregator mirrors the owner's date → hours mapping. Writes are
// pessimistic: the cache changes only after the store confirms.
type WorkLogAggregator struct {
	guard
	store  store.WorkLogStore
	logger *zap.Logger
	hours  stats.WorkHours
}

// NewWorkLogAggregator creates an empty aggregator.
func NewWorkLogAggregator(s store.WorkLogStore, logger *zap.Logger) *WorkLogAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkLogAggregator{store: s, logger: logger, hours: stats.WorkHours{}}
}

// Load replaces the cache with the owner's logs. On error the cache is left
// empty. An empty owner is a no-op.
func (a *WorkLogAggregator) Load(ctx context.Context, owner string) error {
	if owner == "" {
		return nil
	}

	a.mu.Lock()
	if a.bindLocked(owner) {
		a.hours = stats.WorkHours{}
	}
	gen := a.gen
	a.mu.Unlock()

	logs, err := a.store.ListWorkLogs(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(gen) {
		return ErrStale
	}
	if err != nil {
		a.hours = stats.WorkHours{}
		a.logger.Warn("failed_to_load_work_logs", zap.Error(err))
		return fmt.Errorf("failed to load work logs: %w", err)
	}

	hours := make(stats.WorkHours, len(logs))
	for _, l := range logs {
		hours[l.WorkDate] = l.Hours
	}
	a.hours = hours
	return nil
}

// Upsert writes hours for date. The value written always wins locally.
func (a *WorkLogAggregator) Upsert(ctx context.Context, owner, date string, hours float64) error {
	if owner == "" {
		return nil
	}
	if err := ValidateDate(date); err != nil {
		return err
	}
	if math.IsNaN(hours) || hours < 0 || hours > 24 {
		return ErrInvalidHours
	}

	a.mu.Lock()
	if a.bindLocked(owner) {
		a.hours = stats.WorkHours{}
	}
	gen := a.gen
	a.mu.Unlock()

	if _, err := a.store.UpsertWorkLog(ctx, date, hours); err != nil {
		a.logger.Warn("failed_to_upsert_work_log", zap.String("date", date), zap.Error(err))
		return fmt.Errorf("failed to save work log: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(gen) {
		return ErrStale
	}
	a.hours[date] = hours
	return nil
}

// Hours returns a copy of the cache.
func (a *WorkLogAggregator) Hours() stats.WorkHours {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hours.Clone()
}

// Reset empties the cache and discards in-flight results.
func (a *WorkLogAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidateLocked()
	a.hours = stats.WorkHours{}
}

// ValidateDate accepts only canonical YYYY-MM-DD calendar dates.
func ValidateDate(date string) error {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil || t.Format(models.DateLayout) != date {
		return ErrInvalidDate
	}
	return nil
}
