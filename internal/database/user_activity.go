package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
)

// UserActivityRepository records API activity per user.
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	a := &models.UserActivity{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, last_api_interaction, rollover_paused, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`, userID).Scan(&a.UserID, &a.LastAPIInteraction, &a.RolloverPaused, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user activity %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}
	return a, nil
}

// UpdateLastInteraction stamps the user as active now and unpauses them.
func (r *UserActivityRepository) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, last_api_interaction, rollover_paused, created_at, updated_at)
		VALUES ($1, $2, false, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_api_interaction = EXCLUDED.last_api_interaction,
		    rollover_paused = false,
		    updated_at = EXCLUDED.updated_at
	`, userID, now)
	if err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}
	return nil
}

// GetEligibleUsersForRollover returns users that are not paused.
func (r *UserActivityRepository) GetEligibleUsersForRollover(ctx context.Context) ([]uuid.UUID, error) {
	return r.queryUserIDs(ctx, `SELECT user_id FROM user_activity WHERE rollover_paused = false`)
}

// PauseInactive pauses users whose last interaction is before cutoff and
// returns their IDs.
func (r *UserActivityRepository) PauseInactive(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	return r.queryUserIDs(ctx, `
		UPDATE user_activity
		SET rollover_paused = true, updated_at = NOW()
		WHERE last_api_interaction < $1 AND rollover_paused = false
		RETURNING user_id
	`, cutoff)
}

func (r *UserActivityRepository) queryUserIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var userIDs []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return userIDs, nil
}
