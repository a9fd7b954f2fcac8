package reservations

import (
	"context"
	"errors"
	"time"
)

// RepositoryPort defines data access methods for reservations.
type RepositoryPort interface {
	Create(ctx context.Context, res Reservation) (Reservation, error)
	ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]Reservation, error)
	Decide(ctx context.Context, id, deciderID int64, status string, now time.Time) (Reservation, error)
	Cancel(ctx context.Context, id, userID int64) error
}

// Service handles reservation business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ErrInvalidWindow is returned when the requested window is empty or
// inverted.
var ErrInvalidWindow = errors.New("ends_at must be after starts_at")

// Request books a room slot for a club activity.
func (s *Service) Request(ctx context.Context, clubID, roomID, userID int64, purpose string, startsAt, endsAt time.Time) (Reservation, error) {
	if !endsAt.After(startsAt) {
		return Reservation{}, ErrInvalidWindow
	}
	return s.repo.Create(ctx, Reservation{
		ClubID:   clubID,
		RoomID:   roomID,
		UserID:   userID,
		Purpose:  purpose,
		StartsAt: startsAt.UTC(),
		EndsAt:   endsAt.UTC(),
	})
}

// ListByClub returns a page of reservations.
func (s *Service) ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]Reservation, error) {
	return s.repo.ListByClub(ctx, clubID, limit, offset)
}

// Approve confirms a requested reservation.
func (s *Service) Approve(ctx context.Context, id, deciderID int64) (Reservation, error) {
	return s.repo.Decide(ctx, id, deciderID, StatusApproved, time.Now().UTC())
}

// Reject declines a requested reservation.
func (s *Service) Reject(ctx context.Context, id, deciderID int64) (Reservation, error) {
	return s.repo.Decide(ctx, id, deciderID, StatusRejected, time.Now().UTC())
}

// Cancel withdraws the caller's own reservation.
func (s *Service) Cancel(ctx context.Context, id, userID int64) error {
	return s.repo.Cancel(ctx, id, userID)
}
