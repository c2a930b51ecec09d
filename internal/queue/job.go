package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeStatsRefresh recomputes and caches a user's statistics after
	// their work logs change.
	JobTypeStatsRefresh JobType = "stats_refresh"
	// JobTypeDailyRollover refreshes statistics after midnight, when the
	// streak and projections move without any new data.
	JobTypeDailyRollover JobType = "daily_rollover"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	Year       int            `json:"year,omitempty"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // nil = never expires
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		MaxRetries: 3,
	}
}

// ShouldProcess reports whether now is inside the job's window
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.IsExpired()
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
