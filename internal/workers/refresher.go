// Package workers holds the background job processors run by cmd/worker.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	baseRetryDelay = 5 * time.Second
	maxRetryDelay  = 5 * time.Minute
)

// StatsRefresher recomputes and caches a user's statistics.
type StatsRefresher interface {
	Refresh(ctx context.Context, userID uuid.UUID, year int) error
}

// JobEnqueuer publishes jobs; used to re-schedule failed ones.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// RefreshWorker processes stats refresh and daily rollover jobs
type RefreshWorker struct {
	stats   StatsRefresher
	jobs    JobEnqueuer
	metrics metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewRefreshWorker creates a worker. jobs may be nil, in which case failed
// jobs are requeued by the broker without delay.
func NewRefreshWorker(stats StatsRefresher, jobs JobEnqueuer, rec metrics.Recorder, logger *zap.Logger) *RefreshWorker {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshWorker{stats: stats, jobs: jobs, metrics: rec, logger: logger, now: time.Now}
}

// ProcessJob dispatches a delivered job by type and settles the message.
func (w *RefreshWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		w.logger.Debug("dropping_expired_job", zap.String("job_id", job.ID.String()))
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack expired job: %w", err)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeStatsRefresh, queue.JobTypeDailyRollover:
	default:
		if err := msg.Nack(false); err != nil {
			w.logger.Warn("failed_to_nack_unknown_job", zap.Error(err))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	year := job.Year
	if year == 0 || job.Type == queue.JobTypeDailyRollover {
		year = w.now().Year()
	}

	start := w.now()
	err := w.stats.Refresh(ctx, job.UserID, year)
	w.metrics.RecordStatsRefresh(w.now().Sub(start), err)
	if err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	w.logger.Debug("stats_refreshed",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("user_id", job.UserID.String()),
		zap.Int("year", year),
	)
	return nil
}

// handleJobError re-schedules the job with exponential backoff while retries
// remain and dead-letters it afterwards.
func (w *RefreshWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() {
		w.logger.Error("stats_refresh_failed_sending_to_dlq",
			zap.String("job_id", job.ID.String()),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	if w.jobs == nil {
		job.IncrementRetry()
		if nackErr := msg.Nack(true); nackErr != nil {
			w.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	delay := RetryDelay(job.RetryCount)
	notBefore := w.now().Add(delay)
	retry := *job
	retry.NotBefore = &notBefore
	retry.RetryCount = job.RetryCount + 1

	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("failed_to_ack_job_before_retry", zap.Error(ackErr))
	}
	if enqueueErr := w.jobs.Enqueue(ctx, &retry); enqueueErr != nil {
		w.logger.Error("failed_to_reenqueue_job",
			zap.String("job_id", job.ID.String()),
			zap.Error(enqueueErr),
		)
		return fmt.Errorf("job failed, re-enqueue failed: %w", enqueueErr)
	}

	w.logger.Warn("stats_refresh_failed_will_retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("attempt", retry.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("retry_delay", delay),
		zap.Error(err),
	)
	return fmt.Errorf("job failed (will retry): %w", err)
}

// RetryDelay is the backoff before attempt retryCount+1.
func RetryDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 10 {
		return maxRetryDelay
	}
	delay := baseRetryDelay << uint(retryCount)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
