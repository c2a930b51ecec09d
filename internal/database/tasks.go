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

const taskColumns = `id, user_id, title, motivation, completed, created_at, completed_at`

// TaskRepository stores tasks. Every query is scoped to the owning user.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Motivation, &t.Completed, &t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns the user's tasks ordered by creation time, oldest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// Create inserts a task, assigning its ID and creation time.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	task.ID = uuid.New()
	task.Completed = false
	task.CompletedAt = nil
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (id, user_id, title, motivation, completed, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING created_at
	`, task.ID, task.UserID, task.Title, task.Motivation, time.Now()).Scan(&task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID returns one of the user's tasks.
func (r *TaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2
	`, id, userID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, err
}

// SetCompleted flips the completion flag. completed_at is stamped when the
// task becomes complete and cleared when it is reopened.
func (r *TaskRepository) SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET completed = $3,
		    completed_at = CASE
		        WHEN $3 AND NOT completed THEN $4
		        WHEN $3 THEN completed_at
		        ELSE NULL
		    END
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, userID, completed, time.Now()))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, err
}

// Delete removes one of the user's tasks.
func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectAffected(result, "task")
}
