package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benvon/lockin/internal/logger"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/stats"
	"github.com/benvon/lockin/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskAggregator mirrors the owner's tasks in ascending creation order.
// Toggle and Delete apply locally before the store confirms.
type TaskAggregator struct {
	guard
	store  store.TaskStore
	logger *zap.Logger
	tasks  []*models.Task
	locks  map[uuid.UUID]*taskLock

	// OnError, when set, receives each failure that changed local state
	// back. It is called once per failed operation.
	OnError func(op string, err error)
}

// NewTaskAggregator creates an empty aggregator.
func NewTaskAggregator(s store.TaskStore, log *zap.Logger) *TaskAggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskAggregator{store: s, logger: log, locks: make(map[uuid.UUID]*taskLock)}
}

// Load replaces the cache with the owner's tasks. An empty owner is a no-op.
func (a *TaskAggregator) Load(ctx context.Context, owner string) error {
	if owner == "" {
		return nil
	}

	a.mu.Lock()
	if a.bindLocked(owner) {
		a.tasks = nil
	}
	gen := a.gen
	a.mu.Unlock()

	tasks, err := a.store.ListTasks(ctx)
	if err != nil {
		a.logger.Warn("failed_to_load_tasks", zap.Error(err))
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(gen) {
		return ErrStale
	}
	a.tasks = make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		a.tasks = append(a.tasks, cloneTask(t))
	}
	sortByCreation(a.tasks)
	return nil
}

// Add creates a task. A blank title is rejected without a remote call.
func (a *TaskAggregator) Add(ctx context.Context, owner, title, motivation string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if owner == "" {
		return nil, nil
	}

	a.mu.Lock()
	if a.bindLocked(owner) {
		a.tasks = nil
	}
	gen := a.gen
	a.mu.Unlock()

	task, err := a.store.CreateTask(ctx, title, strings.TrimSpace(motivation))
	if err != nil {
		a.logger.Warn("failed_to_create_task", zap.String("title", logger.SanitizeTitle(title)), zap.Error(err))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.currentLocked(gen) {
		return nil, ErrStale
	}
	a.tasks = append(a.tasks, cloneTask(task))
	sortByCreation(a.tasks)
	return cloneTask(task), nil
}

// Toggle sets the completion flag of id, showing it locally at once. If the
// store rejects the change the previous value is restored and the error is
// reported. Toggles on the same task run one at a time.
func (a *TaskAggregator) Toggle(ctx context.Context, id uuid.UUID, completed bool) error {
	release := a.lockTask(id)
	defer release()

	a.mu.Lock()
	if a.owner == "" {
		a.mu.Unlock()
		return nil
	}
	task := a.findLocked(id)
	if task == nil {
		a.mu.Unlock()
		return ErrTaskNotFound
	}
	prevCompleted, prevAt := task.Completed, task.CompletedAt
	task.Completed = completed
	if completed {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	gen := a.gen
	a.mu.Unlock()

	updated, err := a.store.SetTaskCompleted(ctx, id, completed)

	a.mu.Lock()
	if !a.currentLocked(gen) {
		a.mu.Unlock()
		if err != nil {
			a.logger.Warn("failed_to_update_stale_task", zap.String("task_id", id.String()), zap.Error(err))
		}
		return ErrStale
	}
	if err != nil {
		if t := a.findLocked(id); t != nil {
			t.Completed, t.CompletedAt = prevCompleted, prevAt
		}
		a.mu.Unlock()
		err = fmt.Errorf("failed to update task: %w", err)
		a.report("toggle", err)
		return err
	}
	if updated != nil {
		if t := a.findLocked(id); t != nil {
			*t = *cloneTask(updated)
		}
	}
	a.mu.Unlock()
	return nil
}

// Delete removes id locally, then from the store. When the store fails the
// cache is reloaded rather than patched back.
func (a *TaskAggregator) Delete(ctx context.Context, id uuid.UUID) error {
	a.mu.Lock()
	owner := a.owner
	if owner == "" {
		a.mu.Unlock()
		return nil
	}
	idx := a.indexLocked(id)
	if idx < 0 {
		a.mu.Unlock()
		return ErrTaskNotFound
	}
	a.tasks = append(a.tasks[:idx], a.tasks[idx+1:]...)
	gen := a.gen
	a.mu.Unlock()

	err := a.store.DeleteTask(ctx, id)
	if err == nil {
		return nil
	}

	err = fmt.Errorf("failed to delete task: %w", err)
	a.mu.Lock()
	stale := !a.currentLocked(gen)
	a.mu.Unlock()
	if stale {
		a.logger.Warn("failed_to_delete_stale_task", zap.String("task_id", id.String()), zap.Error(err))
		return ErrStale
	}

	a.logger.Warn("failed_to_delete_task_reloading", zap.String("task_id", id.String()), zap.Error(err))
	if reloadErr := a.Load(ctx, owner); reloadErr != nil {
		err = errors.Join(err, reloadErr)
	}
	a.report("delete", err)
	return err
}

// Tasks returns a copy of the cache.
func (a *TaskAggregator) Tasks() []*models.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*models.Task, len(a.tasks))
	for i, t := range a.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// Progress summarizes completion of the cached tasks.
func (a *TaskAggregator) Progress() stats.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	done := 0
	for _, t := range a.tasks {
		if t.Completed {
			done++
		}
	}
	return stats.TaskProgress(done, len(a.tasks))
}

// LastCompletion returns the most recent completion time, if any.
func (a *TaskAggregator) LastCompletion() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var last time.Time
	for _, t := range a.tasks {
		if t.Completed && t.CompletedAt != nil && t.CompletedAt.After(last) {
			last = *t.CompletedAt
		}
	}
	return last, !last.IsZero()
}

// Reset empties the cache and discards in-flight results.
func (a *TaskAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidateLocked()
	a.tasks = nil
}

// taskLock serializes toggles of one task. The entry lives only while a
// toggle holds or waits on it.
type taskLock struct {
	mu   sync.Mutex
	refs int
}

// lockTask acquires the lock for id and returns its release func.
func (a *TaskAggregator) lockTask(id uuid.UUID) func() {
	a.mu.Lock()
	l, ok := a.locks[id]
	if !ok {
		l = &taskLock{}
		a.locks[id] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, id)
		}
		a.mu.Unlock()
	}
}

// pendingLocks reports how many tasks have a toggle in flight.
func (a *TaskAggregator) pendingLocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}

func (a *TaskAggregator) report(op string, err error) {
	if a.OnError != nil {
		a.OnError(op, err)
	}
}

func (a *TaskAggregator) findLocked(id uuid.UUID) *models.Task {
	if i := a.indexLocked(id); i >= 0 {
		return a.tasks[i]
	}
	return nil
}

func (a *TaskAggregator) indexLocked(id uuid.UUID) int {
	for i, t := range a.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func sortByCreation(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}
