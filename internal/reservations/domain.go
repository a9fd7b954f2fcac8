package reservations

import (
	"errors"
	"time"
)

// Reservation statuses.
const (
	StatusRequested = "requested"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Reservation is a request to use a shared room for a club activity.
type Reservation struct {
	ID        int64      `json:"id"`
	ClubID    int64      `json:"club_id"`
	RoomID    int64      `json:"room_id"`
	UserID    int64      `json:"user_id"`
	Purpose   string     `json:"purpose"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    time.Time  `json:"ends_at"`
	Status    string     `json:"status"`
	DecidedBy *int64     `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

var (
	// ErrSlotTaken is returned when the room is already booked for an
	// overlapping window.
	ErrSlotTaken = errors.New("room already reserved for this window")
	// ErrAlreadyDecided is returned when approving or rejecting a
	// reservation that is no longer in requested state.
	ErrAlreadyDecided = errors.New("reservation already decided")
)
