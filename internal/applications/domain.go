package applications

import (
	"errors"
	"time"
)

// Application statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Application is a membership request from a student to a club.
type Application struct {
	ID         int64      `json:"id"`
	ClubID     int64      `json:"club_id"`
	UserID     int64      `json:"user_id"`
	Motivation string     `json:"motivation"`
	Generation int        `json:"generation"`
	Status     string     `json:"status"`
	DecidedBy  *int64     `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ErrAlreadyDecided is returned when processing a non-pending application.
var ErrAlreadyDecided = errors.New("application already decided")
