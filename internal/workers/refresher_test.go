package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type refreshCounter struct {
	metrics.Nop
	calls  int
	failed int
}

func (c *refreshCounter) RecordStatsRefresh(_ time.Duration, err error) {
	c.calls++
	if err != nil {
		c.failed++
	}
}

func TestRefreshWorker_ProcessJob(t *testing.T) {
	t.Parallel()

	fixedNow := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	boom := errors.New("db down")

	tests := []struct {
		name        string
		job         func() *queue.Job
		refreshErr  error
		enqueueErr  error
		nilEnqueuer bool
		wantErr     bool
		wantAck     bool
		wantNack    bool
		wantRequeue bool
		wantYear    int
		wantRetries int
	}{
		{
			name: "stats refresh uses job year",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeStatsRefresh, uuid.New())
				j.Year = 2023
				return j
			},
			wantAck:  true,
			wantYear: 2023,
		},
		{
			name:     "stats refresh without year uses current year",
			job:      func() *queue.Job { return queue.NewJob(queue.JobTypeStatsRefresh, uuid.New()) },
			wantAck:  true,
			wantYear: 2025,
		},
		{
			name: "rollover always refreshes current year",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeDailyRollover, uuid.New())
				j.Year = 2024
				return j
			},
			wantAck:  true,
			wantYear: 2025,
		},
		{
			name: "expired job is acked without work",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeStatsRefresh, uuid.New())
				past := time.Now().Add(-time.Minute)
				j.NotAfter = &past
				return j
			},
			wantAck: true,
		},
		{
			name:     "unknown type is dead-lettered",
			job:      func() *queue.Job { return queue.NewJob("reprocess_user", uuid.New()) },
			wantErr:  true,
			wantNack: true,
		},
		{
			name:        "failure is re-enqueued with backoff",
			job:         func() *queue.Job { return queue.NewJob(queue.JobTypeStatsRefresh, uuid.New()) },
			refreshErr:  boom,
			wantErr:     true,
			wantAck:     true,
			wantYear:    2025,
			wantRetries: 1,
		},
		{
			name:        "failure without enqueuer is requeued by broker",
			job:         func() *queue.Job { return queue.NewJob(queue.JobTypeStatsRefresh, uuid.New()) },
			refreshErr:  boom,
			nilEnqueuer: true,
			wantErr:     true,
			wantNack:    true,
			wantRequeue: true,
			wantYear:    2025,
		},
		{
			name: "exhausted retries go to the dlq",
			job: func() *queue.Job {
				j := queue.NewJob(queue.JobTypeStatsRefresh, uuid.New())
				j.RetryCount = j.MaxRetries
				return j
			},
			refreshErr: boom,
			wantErr:    true,
			wantNack:   true,
			wantYear:   2025,
		},
		{
			name:       "re-enqueue failure is reported",
			job:        func() *queue.Job { return queue.NewJob(queue.JobTypeStatsRefresh, uuid.New()) },
			refreshErr: boom,
			enqueueErr: errors.New("broker gone"),
			wantErr:    true,
			wantAck:    true,
			wantYear:   2025,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := tt.job()
			gotYear := 0
			refresher := &mockRefresher{
				refreshFunc: func(ctx context.Context, userID uuid.UUID, year int) error {
					if userID != job.UserID {
						t.Errorf("Refresh user = %s, want %s", userID, job.UserID)
					}
					gotYear = year
					return tt.refreshErr
				},
			}
			enqueuer := &mockEnqueuer{
				enqueueFunc: func(ctx context.Context, j *queue.Job) error { return tt.enqueueErr },
			}
			var jobs JobEnqueuer = enqueuer
			if tt.nilEnqueuer {
				jobs = nil
			}
			counter := &refreshCounter{}
			w := NewRefreshWorker(refresher, jobs, counter, zap.NewNop())
			w.now = func() time.Time { return fixedNow }

			msg := &mockMessage{job: job}
			err := w.ProcessJob(context.Background(), msg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ProcessJob() error = %v, wantErr %v", err, tt.wantErr)
			}
			if msg.acked != tt.wantAck || msg.nacked != tt.wantNack || msg.requeue != tt.wantRequeue {
				t.Errorf("ack=%v nack=%v requeue=%v, want ack=%v nack=%v requeue=%v",
					msg.acked, msg.nacked, msg.requeue, tt.wantAck, tt.wantNack, tt.wantRequeue)
			}
			if gotYear != tt.wantYear {
				t.Errorf("refreshed year = %d, want %d", gotYear, tt.wantYear)
			}
			if tt.wantYear != 0 && counter.calls != 1 {
				t.Errorf("RecordStatsRefresh calls = %d, want 1", counter.calls)
			}
			if tt.wantRetries > 0 {
				if len(enqueuer.jobs) != 1 {
					t.Fatalf("re-enqueued %d jobs, want 1", len(enqueuer.jobs))
				}
				retry := enqueuer.jobs[0]
				if retry.RetryCount != tt.wantRetries {
					t.Errorf("retry count = %d, want %d", retry.RetryCount, tt.wantRetries)
				}
				if retry.NotBefore == nil || !retry.NotBefore.Equal(fixedNow.Add(baseRetryDelay)) {
					t.Errorf("not_before = %v", retry.NotBefore)
				}
				if job.RetryCount != 0 {
					t.Error("original job was mutated")
				}
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, 5 * time.Second},
		{0, 5 * time.Second},
		{1, 10 * time.Second},
		{3, 40 * time.Second},
		{6, maxRetryDelay},
		{64, maxRetryDelay},
	}
	for _, tt := range tests {
		if got := RetryDelay(tt.retry); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}
