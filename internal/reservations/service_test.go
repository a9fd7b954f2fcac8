package reservations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubhub/clubhub/internal/reservations"
	_ "github.com/clubhub/clubhub/testing"
)

type stubRepo struct {
	created *reservations.Reservation
	decided []string
}

func (s *stubRepo) Create(ctx context.Context, res reservations.Reservation) (reservations.Reservation, error) {
	s.created = &res
	res.ID = 1
	res.Status = reservations.StatusRequested
	return res, nil
}

func (s *stubRepo) ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]reservations.Reservation, error) {
	return nil, nil
}

func (s *stubRepo) Decide(ctx context.Context, id, deciderID int64, status string, now time.Time) (reservations.Reservation, error) {
	if len(s.decided) > 0 {
		return reservations.Reservation{}, reservations.ErrAlreadyDecided
	}
	s.decided = append(s.decided, status)
	return reservations.Reservation{ID: id, Status: status}, nil
}

func (s *stubRepo) Cancel(ctx context.Context, id, userID int64) error {
	return nil
}

func TestRequestRejectsInvertedWindow(t *testing.T) {
	svc := reservations.NewService(&stubRepo{})
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)

	_, err := svc.Request(context.Background(), 42, 1, 7, "weekly practice", start, start)
	if !errors.Is(err, reservations.ErrInvalidWindow) {
		t.Fatalf("err = %v, want ErrInvalidWindow", err)
	}
	_, err = svc.Request(context.Background(), 42, 1, 7, "weekly practice", start, start.Add(-time.Hour))
	if !errors.Is(err, reservations.ErrInvalidWindow) {
		t.Fatalf("err = %v, want ErrInvalidWindow", err)
	}
}

func TestRequestNormalizesToUTC(t *testing.T) {
	repo := &stubRepo{}
	svc := reservations.NewService(repo)
	loc := time.FixedZone("KST", 9*3600)
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, loc)

	if _, err := svc.Request(context.Background(), 42, 1, 7, "weekly practice", start, start.Add(2*time.Hour)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected a created reservation")
	}
	if repo.created.StartsAt.Location() != time.UTC {
		t.Fatalf("starts_at stored in %v, want UTC", repo.created.StartsAt.Location())
	}
	if !repo.created.StartsAt.Equal(start) {
		t.Fatalf("starts_at = %v, want %v", repo.created.StartsAt, start)
	}
}

func TestApproveOnlyOnce(t *testing.T) {
	repo := &stubRepo{}
	svc := reservations.NewService(repo)

	res, err := svc.Approve(context.Background(), 1, 99)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Status != reservations.StatusApproved {
		t.Fatalf("status = %q, want approved", res.Status)
	}
	if _, err := svc.Reject(context.Background(), 1, 99); !errors.Is(err, reservations.ErrAlreadyDecided) {
		t.Fatalf("err = %v, want ErrAlreadyDecided", err)
	}
}
