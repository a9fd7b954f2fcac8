package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubhub/clubhub/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for memberships and
// the role catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GlobalRoles returns role names for the user's club-independent rows.
func (r *Repository) GlobalRoles(ctx context.Context, userID int64) ([]Role, error) {
	return r.roleNames(ctx, `
		SELECT ro.name FROM memberships m
		JOIN roles ro ON ro.id = m.role_id
		WHERE m.user_id = $1 AND m.club_id IS NULL`, userID)
}

// ClubRoles returns role names for the user's rows within one club.
func (r *Repository) ClubRoles(ctx context.Context, userID, clubID int64) ([]Role, error) {
	return r.roleNames(ctx, `
		SELECT ro.name FROM memberships m
		JOIN roles ro ON ro.id = m.role_id
		WHERE m.user_id = $1 AND m.club_id = $2`, userID, clubID)
}

func (r *Repository) roleNames(ctx context.Context, query string, args ...any) ([]Role, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, Role(name))
	}
	return roles, rows.Err()
}

// UserExists reports whether a user row exists.
func (r *Repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
}

// ClubExists reports whether a club row exists.
func (r *Repository) ClubExists(ctx context.Context, clubID int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM clubs WHERE id = $1)`, clubID)
}

func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ListRoles returns the provisioned role catalog ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]CatalogRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []CatalogRole
	for rows.Next() {
		var role CatalogRole
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRoleByName fetches one catalog row.
func (r *Repository) GetRoleByName(ctx context.Context, name Role) (CatalogRole, error) {
	var role CatalogRole
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles WHERE name = $1`, string(name)).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CatalogRole{}, ErrRoleNotFound
	}
	if err != nil {
		return CatalogRole{}, err
	}
	return role, nil
}

// CreateRole provisions a catalog row.
func (r *Repository) CreateRole(ctx context.Context, name Role, description string) (CatalogRole, error) {
	var role CatalogRole
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, description, created_at, updated_at`,
		string(name), description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if isUniqueViolation(err) {
		return CatalogRole{}, ErrRoleExists
	}
	if err != nil {
		return CatalogRole{}, err
	}
	return role, nil
}

// UpdateRole renames or re-describes a catalog row.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name Role, description string) (CatalogRole, error) {
	var role CatalogRole
	err := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`,
		id, string(name), description).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CatalogRole{}, ErrRoleNotFound
	}
	if isUniqueViolation(err) {
		return CatalogRole{}, ErrRoleExists
	}
	if err != nil {
		return CatalogRole{}, err
	}
	return role, nil
}

// DeleteRole removes a catalog row.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// UpsertMembership assigns a role to a (user, club) pair, updating the
// existing row in place when one exists. The select-for-update keeps the
// at-most-one-row invariant under concurrent assignments.
func (r *Repository) UpsertMembership(ctx context.Context, m Membership) (Membership, error) {
	role, err := r.GetRoleByName(ctx, m.Role)
	if err != nil {
		return Membership{}, err
	}

	var out Membership
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var existingID int64
		err := tx.QueryRow(ctx, `
			SELECT id FROM memberships
			WHERE user_id = $1 AND club_id IS NOT DISTINCT FROM $2
			FOR UPDATE`, m.UserID, m.ClubID).Scan(&existingID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return tx.QueryRow(ctx, `
				INSERT INTO memberships (user_id, club_id, role_id, generation, other_info, joined_at)
				VALUES ($1, $2, $3, $4, $5, now())
				RETURNING id, user_id, club_id, generation, other_info, joined_at`,
				m.UserID, m.ClubID, role.ID, m.Generation, m.OtherInfo).
				Scan(&out.ID, &out.UserID, &out.ClubID, &out.Generation, &out.OtherInfo, &out.JoinedAt)
		case err != nil:
			return err
		default:
			return tx.QueryRow(ctx, `
				UPDATE memberships
				SET role_id = $2, generation = $3, other_info = $4
				WHERE id = $1
				RETURNING id, user_id, club_id, generation, other_info, joined_at`,
				existingID, role.ID, m.Generation, m.OtherInfo).
				Scan(&out.ID, &out.UserID, &out.ClubID, &out.Generation, &out.OtherInfo, &out.JoinedAt)
		}
	})
	if err != nil {
		return Membership{}, err
	}
	out.Role = role.Name
	return out, nil
}

// DeleteMembership removes the row for a (user, club) pair. The second
// result reports whether a row existed.
func (r *Repository) DeleteMembership(ctx context.Context, userID int64, clubID *int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM memberships
		WHERE user_id = $1 AND club_id IS NOT DISTINCT FROM $2`, userID, clubID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListClubMemberships returns every membership row of one club.
func (r *Repository) ListClubMemberships(ctx context.Context, clubID int64) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.user_id, m.club_id, ro.name, m.generation, m.other_info, m.joined_at
		FROM memberships m JOIN roles ro ON ro.id = m.role_id
		WHERE m.club_id = $1
		ORDER BY m.joined_at`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var memberships []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.ClubID, &m.Role, &m.Generation, &m.OtherInfo, &m.JoinedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
