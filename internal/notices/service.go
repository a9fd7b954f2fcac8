package notices

import "context"

// RepositoryPort defines data access methods for notices.
type RepositoryPort interface {
	ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]Notice, error)
	Get(ctx context.Context, clubID, id int64) (Notice, error)
	Create(ctx context.Context, clubID, authorID int64, title, body string, pinned bool) (Notice, error)
	Update(ctx context.Context, clubID, id int64, title, body string, pinned bool) (Notice, error)
	Delete(ctx context.Context, clubID, id int64) error
}

// Service handles notice business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByClub returns a page of notices for a club.
func (s *Service) ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]Notice, error) {
	return s.repo.ListByClub(ctx, clubID, limit, offset)
}

// Get fetches a single notice.
func (s *Service) Get(ctx context.Context, clubID, id int64) (Notice, error) {
	return s.repo.Get(ctx, clubID, id)
}

// Create posts a notice on the club page.
func (s *Service) Create(ctx context.Context, clubID, authorID int64, title, body string, pinned bool) (Notice, error) {
	return s.repo.Create(ctx, clubID, authorID, title, body, pinned)
}

// Update rewrites an existing notice.
func (s *Service) Update(ctx context.Context, clubID, id int64, title, body string, pinned bool) (Notice, error) {
	return s.repo.Update(ctx, clubID, id, title, body, pinned)
}

// Delete removes a notice.
func (s *Service) Delete(ctx context.Context, clubID, id int64) error {
	return s.repo.Delete(ctx, clubID, id)
}
