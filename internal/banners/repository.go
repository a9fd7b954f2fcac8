package banners

import (
	"context"
	"errors"
	"time"

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

// ListActive returns banners currently in their display window.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]Banner, error) {
	const query = `
		SELECT id, title, image_url, link_url, is_active, starts_at, ends_at, created_at, updated_at
		FROM banners
		WHERE is_active AND starts_at <= $1 AND (ends_at IS NULL OR ends_at > $1)
		ORDER BY starts_at DESC`
	return r.queryBanners(ctx, query, now)
}

// ListAll returns every banner for the admin view.
func (r *Repository) ListAll(ctx context.Context) ([]Banner, error) {
	const query = `
		SELECT id, title, image_url, link_url, is_active, starts_at, ends_at, created_at, updated_at
		FROM banners
		ORDER BY starts_at DESC`
	return r.queryBanners(ctx, query)
}

// Create inserts a banner.
func (r *Repository) Create(ctx context.Context, b Banner) (Banner, error) {
	const query = `
		INSERT INTO banners (title, image_url, link_url, is_active, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $5, now(), now())
		RETURNING id, title, image_url, link_url, is_active, starts_at, ends_at, created_at, updated_at`
	var out Banner
	err := r.pool.QueryRow(ctx, query, b.Title, b.ImageURL, b.LinkURL, b.StartsAt, b.EndsAt).Scan(
		&out.ID, &out.Title, &out.ImageURL, &out.LinkURL, &out.IsActive, &out.StartsAt, &out.EndsAt, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return Banner{}, err
	}
	return out, nil
}

// Update rewrites a banner.
func (r *Repository) Update(ctx context.Context, id int64, b Banner) (Banner, error) {
	const query = `
		UPDATE banners
		SET title = $2, image_url = $3, link_url = $4, starts_at = $5, ends_at = $6, updated_at = now()
		WHERE id = $1
		RETURNING id, title, image_url, link_url, is_active, starts_at, ends_at, created_at, updated_at`
	var out Banner
	err := r.pool.QueryRow(ctx, query, id, b.Title, b.ImageURL, b.LinkURL, b.StartsAt, b.EndsAt).Scan(
		&out.ID, &out.Title, &out.ImageURL, &out.LinkURL, &out.IsActive, &out.StartsAt, &out.EndsAt, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Banner{}, httpx.ErrNotFound
		}
		return Banner{}, err
	}
	return out, nil
}

// Delete removes a banner.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeactivateExpired flips is_active on banners past their end time and
// returns how many rows changed. Used by the scheduled sweep.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE banners
		SET is_active = FALSE, updated_at = now()
		WHERE is_active AND ends_at IS NOT NULL AND ends_at <= $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) queryBanners(ctx context.Context, query string, args ...any) ([]Banner, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banners []Banner
	for rows.Next() {
		var b Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.LinkURL, &b.IsActive, &b.StartsAt, &b.EndsAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}
