package database

import (
	"context"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
)

// The interfaces below let handlers, middleware and workers be tested with
// in-memory fakes.

// UserRepositoryInterface is the user mirror used by the auth middleware.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetOrCreateByProviderID(ctx context.Context, providerID, email string, name *string) (*models.User, error)
}

// TaskRepositoryInterface is the task table.
type TaskRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool) (*models.Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// WorkLogRepositoryInterface is the work_logs table.
type WorkLogRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WorkLog, error)
	Upsert(ctx context.Context, log *models.WorkLog) error
	HoursByUser(ctx context.Context, userID uuid.UUID) (map[string]float64, error)
}

// SessionRepositoryInterface is the lock_in_sessions table.
type SessionRepositoryInterface interface {
	Start(ctx context.Context, userID uuid.UUID, startedAt time.Time) (*models.FocusSession, error)
	Finish(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.FocusSession, error)
	CloseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProfileRepositoryInterface is the profiles table.
type ProfileRepositoryInterface interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*models.Profile, error)
}

// UserActivityRepositoryInterface records API activity for the rollover scheduler.
type UserActivityRepositoryInterface interface {
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
	GetEligibleUsersForRollover(ctx context.Context) ([]uuid.UUID, error)
	PauseInactive(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// CorsConfigRepositoryInterface is read by the CORS reloader.
type CorsConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// RatelimitConfigRepositoryInterface is read by the rate limit reloader, which
// stores the default rate when no row exists.
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// OIDCConfigRepositoryInterface is read by the OIDC provider.
type OIDCConfigRepositoryInterface interface {
	GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error)
}

var (
	_ UserRepositoryInterface            = (*UserRepository)(nil)
	_ TaskRepositoryInterface            = (*TaskRepository)(nil)
	_ WorkLogRepositoryInterface         = (*WorkLogRepository)(nil)
	_ SessionRepositoryInterface         = (*SessionRepository)(nil)
	_ ProfileRepositoryInterface         = (*ProfileRepository)(nil)
	_ UserActivityRepositoryInterface    = (*UserActivityRepository)(nil)
	_ CorsConfigRepositoryInterface      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
	_ OIDCConfigRepositoryInterface      = (*OIDCConfigRepository)(nil)
)
