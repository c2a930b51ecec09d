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

// ProfileRepository stores per-user preferences.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.LockInBeat, &p.MainGoal, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetOrCreate returns the user's profile, creating an empty one first if
// none exists.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, email string) (*models.Profile, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, userID, email, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	p, err := scanProfile(r.db.QueryRowContext(ctx, `
		SELECT id, email, lock_in_beat, main_goal, created_at FROM profiles WHERE id = $1
	`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ProfilePatch lists the profile fields to change. Nil fields are left alone;
// an empty string clears the field.
type ProfilePatch struct {
	LockInBeat *string
	MainGoal   *string
}

// Update applies patch to the user's profile.
func (r *ProfileRepository) Update(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, `
		UPDATE profiles
		SET lock_in_beat = CASE WHEN $2::boolean THEN NULLIF($3::text, '') ELSE lock_in_beat END,
		    main_goal = CASE WHEN $4::boolean THEN NULLIF($5::text, '') ELSE main_goal END
		WHERE id = $1
		RETURNING id, email, lock_in_beat, main_goal, created_at
	`, userID, patch.LockInBeat != nil, deref(patch.LockInBeat), patch.MainGoal != nil, deref(patch.MainGoal)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
