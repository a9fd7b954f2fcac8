package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub/clubhub/internal/platform/db"
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

const reservationColumns = `id, club_id, room_id, user_id, purpose, starts_at, ends_at, status, decided_by, decided_at, created_at`

// Create books a slot inside a transaction. The room row is locked
// first so two concurrent requests for the same room serialize, then
// the overlap check runs against approved and requested rows.
func (r *Repository) Create(ctx context.Context, res Reservation) (Reservation, error) {
	var out Reservation
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var roomID int64
		err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, res.RoomID).Scan(&roomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.ErrNotFound
			}
			return err
		}
		var clash bool
		const overlap = `
			SELECT EXISTS (
				SELECT 1 FROM reservations
				WHERE room_id = $1
				  AND status IN ('requested', 'approved')
				  AND starts_at < $3 AND ends_at > $2
			)`
		if err := tx.QueryRow(ctx, overlap, res.RoomID, res.StartsAt, res.EndsAt).Scan(&clash); err != nil {
			return err
		}
		if clash {
			return ErrSlotTaken
		}
		const insert = `
			INSERT INTO reservations (club_id, room_id, user_id, purpose, starts_at, ends_at, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'requested', now())
			RETURNING ` + reservationColumns
		row := tx.QueryRow(ctx, insert, res.ClubID, res.RoomID, res.UserID, res.Purpose, res.StartsAt, res.EndsAt)
		return scanReservation(row, &out)
	})
	if err != nil {
		return Reservation{}, err
	}
	return out, nil
}

// ListByClub returns reservations for a club, newest first.
func (r *Repository) ListByClub(ctx context.Context, clubID int64, limit, offset int) ([]Reservation, error) {
	const query = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE club_id = $1
		ORDER BY starts_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, clubID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Decide flips a requested reservation to approved or rejected.
func (r *Repository) Decide(ctx context.Context, id, deciderID int64, status string, now time.Time) (Reservation, error) {
	const query = `
		UPDATE reservations
		SET status = $2, decided_by = $3, decided_at = $4
		WHERE id = $1 AND status = 'requested'
		RETURNING ` + reservationColumns
	var out Reservation
	err := scanReservation(r.pool.QueryRow(ctx, query, id, status, deciderID, now), &out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, err
	}
	var exists bool
	if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
		return Reservation{}, checkErr
	}
	if !exists {
		return Reservation{}, httpx.ErrNotFound
	}
	return Reservation{}, ErrAlreadyDecided
}

// Cancel lets the requester withdraw a reservation that has not been
// rejected yet.
func (r *Repository) Cancel(ctx context.Context, id, userID int64) error {
	const query = `
		UPDATE reservations
		SET status = 'cancelled'
		WHERE id = $1 AND user_id = $2 AND status IN ('requested', 'approved')`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner, res *Reservation) error {
	return row.Scan(&res.ID, &res.ClubID, &res.RoomID, &res.UserID, &res.Purpose,
		&res.StartsAt, &res.EndsAt, &res.Status, &res.DecidedBy, &res.DecidedAt, &res.CreatedAt)
}
