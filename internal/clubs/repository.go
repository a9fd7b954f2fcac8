package clubs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// ListClubs returns clubs, optionally filtered by a case-folded name prefix.
func (r *Repository) ListClubs(ctx context.Context, foldedQuery string, limit, offset int) ([]Club, error) {
	const query = `
		SELECT id, name, category, description, is_active, created_at, updated_at
		FROM clubs
		WHERE ($1 = '' OR name_folded LIKE $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, foldedQuery, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clubs []Club
	for rows.Next() {
		var c Club
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

// GetClub fetches a club by id.
func (r *Repository) GetClub(ctx context.Context, id int64) (Club, error) {
	const query = `
		SELECT id, name, category, description, is_active, created_at, updated_at
		FROM clubs
		WHERE id = $1`
	var c Club
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Category, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Club{}, httpx.ErrNotFound
		}
		return Club{}, err
	}
	return c, nil
}

// CreateClub inserts a new club.
func (r *Repository) CreateClub(ctx context.Context, name, folded, category, description string) (Club, error) {
	const query = `
		INSERT INTO clubs (name, name_folded, category, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, now(), now())
		RETURNING id, name, category, description, is_active, created_at, updated_at`
	var c Club
	err := r.pool.QueryRow(ctx, query, name, folded, category, description).Scan(
		&c.ID, &c.Name, &c.Category, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Club{}, httpx.ErrDuplicate
		}
		return Club{}, err
	}
	return c, nil
}

// UpdateClub rewrites the mutable club fields.
func (r *Repository) UpdateClub(ctx context.Context, id int64, name, folded, category, description string) (Club, error) {
	const query = `
		UPDATE clubs
		SET name = $2, name_folded = $3, category = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING id, name, category, description, is_active, created_at, updated_at`
	var c Club
	err := r.pool.QueryRow(ctx, query, id, name, folded, category, description).Scan(
		&c.ID, &c.Name, &c.Category, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Club{}, httpx.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Club{}, httpx.ErrDuplicate
		}
		return Club{}, err
	}
	return c, nil
}

// DeactivateClub marks a club inactive instead of deleting its history.
func (r *Repository) DeactivateClub(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clubs SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
