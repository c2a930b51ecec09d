package models

import (
	"time"

	"github.com/google/uuid"
)

// UserActivity tracks when a user last called the API. Users inactive for
// long enough are paused and skipped by the nightly stats rollover.
type UserActivity struct {
	UserID             uuid.UUID `json:"user_id"`
	LastAPIInteraction time.Time `json:"last_api_interaction"`
	RolloverPaused     bool      `json:"rollover_paused"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
