package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
)

// WorkLogRepository stores hours worked per user and date.
type WorkLogRepository struct {
	db *DB
}

// NewWorkLogRepository creates a new work log repository
func NewWorkLogRepository(db *DB) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

// ListByUser returns the user's work logs in ascending date order.
func (r *WorkLogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WorkLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, to_char(work_date, 'YYYY-MM-DD'), hours, created_at, updated_at
		FROM work_logs
		WHERE user_id = $1
		ORDER BY work_date ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	logs := []*models.WorkLog{}
	for rows.Next() {
		l := &models.WorkLog{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.WorkDate, &l.Hours, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work logs: %w", err)
	}
	return logs, nil
}

// Upsert writes the hours for (user, date). An existing row for the same key
// is overwritten; the last write wins.
func (r *WorkLogRepository) Upsert(ctx context.Context, log *models.WorkLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO work_logs (id, user_id, work_date, hours, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $5)
		ON CONFLICT (user_id, work_date) DO UPDATE SET
			hours = EXCLUDED.hours,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, log.ID, log.UserID, log.WorkDate, log.Hours, now).Scan(&log.ID, &log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert work log: %w", err)
	}
	return nil
}

// HoursByUser returns the user's logs as a date to hours mapping.
func (r *WorkLogRepository) HoursByUser(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	logs, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(logs))
	for _, l := range logs {
		out[l.WorkDate] = l.Hours
	}
	return out, nil
}
