package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/store"
	"github.com/google/uuid"
)

type mockWorkLogStore struct {
	listFunc   func(ctx context.Context) ([]*models.WorkLog, error)
	upsertFunc func(ctx context.Context, date string, hours float64) (*models.WorkLog, error)

	mu      sync.Mutex
	upserts int
}

var _ store.WorkLogStore = (*mockWorkLogStore)(nil)

func (m *mockWorkLogStore) ListWorkLogs(ctx context.Context) ([]*models.WorkLog, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockWorkLogStore) UpsertWorkLog(ctx context.Context, date string, hours float64) (*models.WorkLog, error) {
	m.mu.Lock()
	m.upserts++
	m.mu.Unlock()
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, date, hours)
	}
	return &models.WorkLog{WorkDate: date, Hours: hours}, nil
}

type mockTaskStore struct {
	listFunc   func(ctx context.Context) ([]*models.Task, error)
	createFunc func(ctx context.Context, title, motivation string) (*models.Task, error)
	setFunc    func(ctx context.Context, id uuid.UUID, completed bool) (*models.Task, error)
	deleteFunc func(ctx context.Context, id uuid.UUID) error

	mu      sync.Mutex
	creates int
}

var _ store.TaskStore = (*mockTaskStore)(nil)

func (m *mockTaskStore) ListTasks(ctx context.Context) ([]*models.Task, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockTaskStore) CreateTask(ctx context.Context, title, motivation string) (*models.Task, error) {
	m.mu.Lock()
	m.creates++
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, title, motivation)
	}
	return &models.Task{ID: uuid.New(), Title: title, Motivation: motivation, CreatedAt: time.Now()}, nil
}

func (m *mockTaskStore) SetTaskCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Task, error) {
	if m.setFunc != nil {
		return m.setFunc(ctx, id, completed)
	}
	return nil, nil
}

func (m *mockTaskStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockSessionStore struct {
	startFunc  func(ctx context.Context, startedAt time.Time) (*models.FocusSession, error)
	finishFunc func(ctx context.Context, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error)

	mu       sync.Mutex
	finishes int
}

var _ store.SessionStore = (*mockSessionStore)(nil)

func (m *mockSessionStore) StartSession(ctx context.Context, startedAt time.Time) (*models.FocusSession, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, startedAt)
	}
	return &models.FocusSession{ID: uuid.New(), StartedAt: startedAt}, nil
}

func (m *mockSessionStore) FinishSession(ctx context.Context, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error) {
	m.mu.Lock()
	m.finishes++
	m.mu.Unlock()
	if m.finishFunc != nil {
		return m.finishFunc(ctx, id, endedAt, idleSeconds)
	}
	return &models.FocusSession{ID: id, EndedAt: &endedAt, IdleSeconds: idleSeconds}, nil
}

type mockIdentity struct {
	meFunc func(ctx context.Context) (*models.Me, error)
}

var _ store.Identity = (*mockIdentity)(nil)

func (m *mockIdentity) Me(ctx context.Context) (*models.Me, error) {
	return m.meFunc(ctx)
}

// fakeTicker delivers ticks only when the test sends them. The channel is
// unbuffered so a send returns once the loop has taken the tick.
type fakeTicker struct {
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
