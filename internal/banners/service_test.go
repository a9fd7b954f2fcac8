package banners_test

import (
	"context"
	"testing"
	"time"

	"github.com/clubhub/clubhub/internal/banners"
	_ "github.com/clubhub/clubhub/testing"
)

type stubRepo struct {
	sweepCutoff time.Time
	swept       int64
}

func (s *stubRepo) ListActive(ctx context.Context, now time.Time) ([]banners.Banner, error) {
	return nil, nil
}

func (s *stubRepo) ListAll(ctx context.Context) ([]banners.Banner, error) {
	return nil, nil
}

func (s *stubRepo) Create(ctx context.Context, b banners.Banner) (banners.Banner, error) {
	return b, nil
}

func (s *stubRepo) Update(ctx context.Context, id int64, b banners.Banner) (banners.Banner, error) {
	return b, nil
}

func (s *stubRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func (s *stubRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	s.sweepCutoff = now
	return s.swept, nil
}

func TestSweepExpiredUsesCurrentTime(t *testing.T) {
	repo := &stubRepo{swept: 3}
	svc := banners.NewService(repo)

	before := time.Now().UTC()
	swept, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	after := time.Now().UTC()

	if swept != 3 {
		t.Fatalf("swept = %d, want 3", swept)
	}
	if repo.sweepCutoff.Before(before) || repo.sweepCutoff.After(after) {
		t.Fatalf("sweep cutoff %v outside [%v, %v]", repo.sweepCutoff, before, after)
	}
}
