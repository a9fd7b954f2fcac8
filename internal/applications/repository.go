package applications

import (
	"context"
	"errors"
	"time"

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

const applicationColumns = `id, club_id, user_id, motivation, generation, status, decided_by, decided_at, created_at`

// Create inserts a pending application. A partial unique index keeps at
// most one pending application per (club, user) pair.
func (r *Repository) Create(ctx context.Context, clubID, userID int64, motivation string, generation int) (Application, error) {
	const query = `
		INSERT INTO applications (club_id, user_id, motivation, generation, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', now())
		RETURNING ` + applicationColumns
	app, err := r.scanOne(r.pool.QueryRow(ctx, query, clubID, userID, motivation, generation))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Application{}, httpx.ErrDuplicate
		}
		return Application{}, err
	}
	return app, nil
}

// ListByClub returns applications for a club, optionally filtered by status.
func (r *Repository) ListByClub(ctx context.Context, clubID int64, status string, limit, offset int) ([]Application, error) {
	const query = `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE club_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, clubID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// Get fetches an application within a club.
func (r *Repository) Get(ctx context.Context, clubID, id int64) (Application, error) {
	const query = `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE id = $1 AND club_id = $2`
	app, err := r.scanOne(r.pool.QueryRow(ctx, query, id, clubID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Application{}, httpx.ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

// Decide flips a pending application to the given status. Returns
// ErrAlreadyDecided when the row exists but is no longer pending, so a
// decision can never be applied twice.
func (r *Repository) Decide(ctx context.Context, clubID, id, deciderID int64, status string, now time.Time) (Application, error) {
	const query = `
		UPDATE applications
		SET status = $3, decided_by = $4, decided_at = $5
		WHERE id = $1 AND club_id = $2 AND status = 'pending'
		RETURNING ` + applicationColumns
	app, err := r.scanOne(r.pool.QueryRow(ctx, query, id, clubID, status, deciderID, now))
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Application{}, err
	}
	// Distinguish missing from already decided.
	if _, getErr := r.Get(ctx, clubID, id); getErr != nil {
		return Application{}, getErr
	}
	return Application{}, ErrAlreadyDecided
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row rowScanner) (Application, error) {
	var app Application
	err := row.Scan(&app.ID, &app.ClubID, &app.UserID, &app.Motivation, &app.Generation,
		&app.Status, &app.DecidedBy, &app.DecidedAt, &app.CreatedAt)
	return app, err
}
