package workers

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/queue"
	"github.com/google/uuid"
)

var (
	_ queue.MessageInterface                   = (*mockMessage)(nil)
	_ StatsRefresher                           = (*mockRefresher)(nil)
	_ JobEnqueuer                              = (*mockEnqueuer)(nil)
	_ database.UserActivityRepositoryInterface = (*mockActivityRepo)(nil)
	_ StaleSessionCloser                       = (*mockSessionCloser)(nil)
)

type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error { m.acked = true; return nil }

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job { return m.job }

type mockRefresher struct {
	refreshFunc func(ctx context.Context, userID uuid.UUID, year int) error
}

func (m *mockRefresher) Refresh(ctx context.Context, userID uuid.UUID, year int) error {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, userID, year)
	}
	return nil
}

type mockEnqueuer struct {
	mu          sync.Mutex
	jobs        []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

type mockActivityRepo struct {
	updateLastInteractionFunc func(ctx context.Context, userID uuid.UUID) error
	getEligibleFunc           func(ctx context.Context) ([]uuid.UUID, error)
	pauseInactiveFunc         func(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

func (m *mockActivityRepo) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	if m.updateLastInteractionFunc != nil {
		return m.updateLastInteractionFunc(ctx, userID)
	}
	return nil
}

func (m *mockActivityRepo) GetEligibleUsersForRollover(ctx context.Context) ([]uuid.UUID, error) {
	if m.getEligibleFunc != nil {
		return m.getEligibleFunc(ctx)
	}
	return nil, nil
}

func (m *mockActivityRepo) PauseInactive(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	if m.pauseInactiveFunc != nil {
		return m.pauseInactiveFunc(ctx, cutoff)
	}
	return nil, nil
}

type mockSessionCloser struct {
	closeStaleFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockSessionCloser) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.closeStaleFunc != nil {
		return m.closeStaleFunc(ctx, cutoff)
	}
	return 0, nil
}
