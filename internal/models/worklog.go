package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO calendar date format used for work log keys.
const DateLayout = "2006-01-02"

// WorkLog records the hours worked by a user on one calendar date.
// (UserID, WorkDate) is unique.
type WorkLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	WorkDate  string    `json:"work_date"`
	Hours     float64   `json:"hours"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
