package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultInactiveAfter pauses rollover for users idle this long
	DefaultInactiveAfter = 30 * 24 * time.Hour
	// DefaultStaleSessionAfter closes focus sessions left open this long
	DefaultStaleSessionAfter = 12 * time.Hour
)

// StaleSessionCloser ends abandoned focus sessions.
type StaleSessionCloser interface {
	CloseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs the nightly rollover: it pauses inactive users, queues a
// stats refresh for everyone else and closes abandoned focus sessions.
type Scheduler struct {
	jobs          JobEnqueuer
	activityRepo  database.UserActivityRepositoryInterface
	sessions      StaleSessionCloser
	logger        *zap.Logger
	location      *time.Location
	inactiveAfter time.Duration
	staleAfter    time.Duration
	now           func() time.Time
}

// NewScheduler creates a scheduler that rolls over at midnight in loc.
// sessions may be nil.
func NewScheduler(jobs JobEnqueuer, activityRepo database.UserActivityRepositoryInterface, sessions StaleSessionCloser, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobs:          jobs,
		activityRepo:  activityRepo,
		sessions:      sessions,
		logger:        logger,
		location:      loc,
		inactiveAfter: DefaultInactiveAfter,
		staleAfter:    DefaultStaleSessionAfter,
		now:           time.Now,
	}
}

// NextMidnight returns the first midnight in loc strictly after now.
func NextMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// Start runs the rollover at every midnight until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		next := NextMidnight(s.now(), s.location)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if err := s.Rollover(ctx); err != nil {
			s.logger.Error("rollover_failed", zap.Error(err))
		}
	}
}

// Rollover performs one nightly pass. Per-user enqueue failures are logged
// and do not stop the pass.
func (s *Scheduler) Rollover(ctx context.Context) error {
	now := s.now()

	paused, err := s.activityRepo.PauseInactive(ctx, now.Add(-s.inactiveAfter))
	if err != nil {
		return fmt.Errorf("failed to pause inactive users: %w", err)
	}

	if s.sessions != nil {
		closed, err := s.sessions.CloseStale(ctx, now.Add(-s.staleAfter))
		if err != nil {
			s.logger.Warn("failed_to_close_stale_sessions", zap.Error(err))
		} else if closed > 0 {
			s.logger.Info("closed_stale_sessions", zap.Int64("count", closed))
		}
	}

	eligible, err := s.activityRepo.GetEligibleUsersForRollover(ctx)
	if err != nil {
		return fmt.Errorf("failed to get eligible users: %w", err)
	}

	enqueued := 0
	for _, userID := range eligible {
		if err := s.enqueueRollover(ctx, userID, now); err != nil {
			s.logger.Warn("failed_to_schedule_rollover_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		enqueued++
	}

	s.logger.Info("scheduled_rollover_jobs",
		zap.Int("eligible", len(eligible)),
		zap.Int("enqueued", enqueued),
		zap.Int("paused", len(paused)),
	)
	return nil
}

func (s *Scheduler) enqueueRollover(ctx context.Context, userID uuid.UUID, now time.Time) error {
	job := queue.NewJob(queue.JobTypeDailyRollover, userID)
	job.Year = now.In(s.location).Year()
	// useless once the next rollover is due
	notAfter := now.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue rollover job: %w", err)
	}
	return nil
}
