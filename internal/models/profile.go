package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds per-user preferences. ID equals the owning user's ID.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	LockInBeat *string   `json:"lock_in_beat,omitempty"`
	MainGoal   *string   `json:"main_goal,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Me is the response body of the current-identity endpoint.
type Me struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile"`
}
