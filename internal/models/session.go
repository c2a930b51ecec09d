package models

import (
	"time"

	"github.com/google/uuid"
)

// FocusSession is a lock-in interval. EndedAt is nil while the session is open.
type FocusSession struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	IdleSeconds int        `json:"idle_seconds"`
}

// Open reports whether the session has not been finalized.
func (s *FocusSession) Open() bool {
	return s.EndedAt == nil
}
