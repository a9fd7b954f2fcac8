package clubs

import (
	"context"

	"golang.org/x/text/cases"
)

// RepositoryPort defines data access methods for clubs.
type RepositoryPort interface {
	ListClubs(ctx context.Context, foldedQuery string, limit, offset int) ([]Club, error)
	GetClub(ctx context.Context, id int64) (Club, error)
	CreateClub(ctx context.Context, name, folded, category, description string) (Club, error)
	UpdateClub(ctx context.Context, id int64, name, folded, category, description string) (Club, error)
	DeactivateClub(ctx context.Context, id int64) error
}

// Service handles club business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// foldName normalizes a club name or search query with Unicode case
// folding. A fresh Caser is built per call because Casers are stateful
// and not safe for concurrent use.
func foldName(s string) string {
	return cases.Fold().String(s)
}

// ListClubs returns a page of clubs. The search query is Unicode
// case-folded so lookups match regardless of input casing.
func (s *Service) ListClubs(ctx context.Context, query string, limit, offset int) ([]Club, error) {
	return s.repo.ListClubs(ctx, foldName(query), limit, offset)
}

// GetClub fetches a single club.
func (s *Service) GetClub(ctx context.Context, id int64) (Club, error) {
	return s.repo.GetClub(ctx, id)
}

// CreateClub registers a new club.
func (s *Service) CreateClub(ctx context.Context, name, category, description string) (Club, error) {
	return s.repo.CreateClub(ctx, name, foldName(name), category, description)
}

// UpdateClub rewrites club details.
func (s *Service) UpdateClub(ctx context.Context, id int64, name, category, description string) (Club, error) {
	return s.repo.UpdateClub(ctx, id, name, foldName(name), category, description)
}

// DeactivateClub retires a club without deleting it.
func (s *Service) DeactivateClub(ctx context.Context, id int64) error {
	return s.repo.DeactivateClub(ctx, id)
}
