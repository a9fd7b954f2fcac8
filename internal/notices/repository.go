package notices

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub/clubhub/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByClub returns notices for a club, pinned first, newest next.
func (r *Repository) ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]Notice, error) {
	const query = `
		SELECT id, club_id, author_id, title, body, pinned, created_at, updated_at
		FROM notices
		WHERE club_id = $1
		ORDER BY pinned DESC, created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, clubID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []Notice
	for rows.Next() {
		var n Notice
		if err := rows.Scan(&n.ID, &n.ClubID, &n.AuthorID, &n.Title, &n.Body, &n.Pinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

// Get fetches a notice within a club.
func (r *Repository) Get(ctx context.Context, clubID, id int64) (Notice, error) {
	const query = `
		SELECT id, club_id, author_id, title, body, pinned, created_at, updated_at
		FROM notices
		WHERE id = $1 AND club_id = $2`
	var n Notice
	err := r.pool.QueryRow(ctx, query, id, clubID).Scan(&n.ID, &n.ClubID, &n.AuthorID, &n.Title, &n.Body, &n.Pinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notice{}, httpx.ErrNotFound
		}
		return Notice{}, err
	}
	return n, nil
}

// Create inserts a notice.
func (r *Repository) Create(ctx context.Context, clubID, authorID int64, title, body string, pinned bool) (Notice, error) {
	const query = `
		INSERT INTO notices (club_id, author_id, title, body, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, club_id, author_id, title, body, pinned, created_at, updated_at`
	var n Notice
	err := r.pool.QueryRow(ctx, query, clubID, authorID, title, body, pinned).Scan(
		&n.ID, &n.ClubID, &n.AuthorID, &n.Title, &n.Body, &n.Pinned, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return Notice{}, err
	}
	return n, nil
}

// Update rewrites a notice within a club.
func (r *Repository) Update(ctx context.Context, clubID, id int64, title, body string, pinned bool) (Notice, error) {
	const query = `
		UPDATE notices
		SET title = $3, body = $4, pinned = $5, updated_at = now()
		WHERE id = $1 AND club_id = $2
		RETURNING id, club_id, author_id, title, body, pinned, created_at, updated_at`
	var n Notice
	err := r.pool.QueryRow(ctx, query, id, clubID, title, body, pinned).Scan(
		&n.ID, &n.ClubID, &n.AuthorID, &n.Title, &n.Body, &n.Pinned, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notice{}, httpx.ErrNotFound
		}
		return Notice{}, err
	}
	return n, nil
}

// Delete removes a notice within a club.
func (r *Repository) Delete(ctx context.Context, clubID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notices WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
