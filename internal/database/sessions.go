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

const sessionColumns = `id, user_id, started_at, ended_at, idle_seconds`

// SessionRepository stores lock-in focus sessions.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row rowScanner) (*models.FocusSession, error) {
	s := &models.FocusSession{}
	err := row.Scan(&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.IdleSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start opens a new session for the user. Any session the user left open is
// closed at the new start time in the same transaction, so at most one
// session is open per user.
func (r *SessionRepository) Start(ctx context.Context, userID uuid.UUID, startedAt time.Time) (*models.FocusSession, error) {
	var session *models.FocusSession
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE lock_in_sessions
			SET ended_at = GREATEST($2, started_at)
			WHERE user_id = $1 AND ended_at IS NULL
		`, userID, startedAt); err != nil {
			return fmt.Errorf("failed to close open sessions: %w", err)
		}

		s, err := scanSession(tx.QueryRowContext(ctx, `
			INSERT INTO lock_in_sessions (id, user_id, started_at, idle_seconds)
			VALUES ($1, $2, $3, 0)
			RETURNING `+sessionColumns,
			uuid.New(), userID, startedAt))
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Finish records the end time and idle seconds of one of the user's sessions.
func (r *SessionRepository) Finish(ctx context.Context, userID, id uuid.UUID, endedAt time.Time, idleSeconds int) (*models.FocusSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `
		UPDATE lock_in_sessions
		SET ended_at = $3, idle_seconds = $4
		WHERE id = $1 AND user_id = $2
		RETURNING `+sessionColumns,
		id, userID, endedAt, idleSeconds))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to finish session: %w", err)
	}
	return s, err
}

// ListByUser returns the user's most recent sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.FocusSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM lock_in_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := []*models.FocusSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// CloseStale ends sessions left open since before cutoff, counting the whole
// open interval as idle. It returns the number of sessions closed.
func (r *SessionRepository) CloseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE lock_in_sessions
		SET ended_at = $1,
		    idle_seconds = GREATEST(idle_seconds, EXTRACT(EPOCH FROM ($1 - started_at))::int)
		WHERE ended_at IS NULL AND started_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to close stale sessions: %w", err)
	}
	return result.RowsAffected()
}
