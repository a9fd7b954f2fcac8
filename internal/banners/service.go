package banners

import (
	"context"
	"time"
)

// RepositoryPort defines data access methods for banners.
type RepositoryPort interface {
	ListActive(ctx context.Context, now time.Time) ([]Banner, error)
	ListAll(ctx context.Context) ([]Banner, error)
	Create(ctx context.Context, b Banner) (Banner, error)
	Update(ctx context.Context, id int64, b Banner) (Banner, error)
	Delete(ctx context.Context, id int64) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service handles banner business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListActive returns banners inside their display window.
func (s *Service) ListActive(ctx context.Context) ([]Banner, error) {
	return s.repo.ListActive(ctx, time.Now().UTC())
}

// ListAll returns every banner.
func (s *Service) ListAll(ctx context.Context) ([]Banner, error) {
	return s.repo.ListAll(ctx)
}

// Create registers a new banner.
func (s *Service) Create(ctx context.Context, b Banner) (Banner, error) {
	return s.repo.Create(ctx, b)
}

// Update rewrites an existing banner.
func (s *Service) Update(ctx context.Context, id int64, b Banner) (Banner, error) {
	return s.repo.Update(ctx, id, b)
}

// Delete removes a banner.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SweepExpired deactivates banners whose display window has closed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, time.Now().UTC())
}
