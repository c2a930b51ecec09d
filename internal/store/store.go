// Package store defines the record store contract the client-side
// aggregators depend on. Every call is scoped to the authenticated user by
// the credential the implementation carries.
package store

import (
	"context"
	"io"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
)

// TaskStore persists tasks.
type TaskStore interface {
	// ListTasks returns the user's tasks in ascending creation order.
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, title, motivation string) (*models.Task, error)
	SetTaskCompleted(ctx context.Context, id uuid.UUID, completed bool) (*models.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

// WorkLogStore persists per-date hours.
type WorkLogStore interface {
	ListWorkLogs(ctx context.Context) ([]*models.WorkLog, error)
	// UpsertWorkLog writes hours for date, replacing any existing value.
	UpsertWorkLog(ctx context.Context, date string, hours float64) (*models.WorkLog, error)
}

// SessionStore persists lock-in sessions.
type SessionStore interface {
	StartSession(ctx context.Context, startedAt time.Time) (*models.FocusSession, error)
	FinishSession(ctx context.Context, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error)
}

// ProfileUpdate changes only the non-nil fields. An empty LockInBeat clears it.
type ProfileUpdate struct {
	LockInBeat *string `json:"lock_in_beat,omitempty"`
	MainGoal   *string `json:"main_goal,omitempty"`
}

// ProfileStore updates the user's profile.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.Profile, error)
}

// BlobStore uploads a focus beat and returns its public URL.
type BlobStore interface {
	UploadBeat(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// Identity resolves the current user. It returns (nil, nil) when the
// credential is not accepted.
type Identity interface {
	Me(ctx context.Context) (*models.Me, error)
}

// HypeSource returns a motivational line.
type HypeSource interface {
	Hype(ctx context.Context) (string, error)
}
