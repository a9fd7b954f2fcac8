package rbac

import (
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of role names the permission subsystem knows.
// Unknown names never enter the policy table or the memberships join
// path; they fail at load or at the service boundary instead.
type Role string

const (
	// RoleStudent is the implicit standing of every registered user. It
	// is never stored as a membership row; assigning it to an existing
	// membership revokes that membership.
	RoleStudent Role = "STUDENT"

	RoleClubMember    Role = "CLUB_MEMBER"
	RoleClubOfficer   Role = "CLUB_OFFICER"
	RoleClubPresident Role = "CLUB_PRESIDENT"
	// RoleClubResting marks an inactive club member.
	RoleClubResting Role = "CLUB_RESTING"

	// RoleUnionAdmin and RoleDeveloper are global roles: memberships with
	// no club association that participate in every club's evaluation.
	RoleUnionAdmin Role = "UNION_ADMIN"
	RoleDeveloper  Role = "DEVELOPER"
)

// AllRoles lists every known role name.
func AllRoles() []Role {
	return []Role{
		RoleStudent,
		RoleClubMember,
		RoleClubOfficer,
		RoleClubPresident,
		RoleClubResting,
		RoleUnionAdmin,
		RoleDeveloper,
	}
}

// Valid reports whether r is a known role name.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleClubMember, RoleClubOfficer, RoleClubPresident,
		RoleClubResting, RoleUnionAdmin, RoleDeveloper:
		return true
	}
	return false
}

// Global reports whether r is a club-independent role.
func (r Role) Global() bool {
	return r == RoleUnionAdmin || r == RoleDeveloper
}

// ParseRole validates a raw role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("rbac: %w: %q", ErrRoleUnknown, s)
	}
	return r, nil
}

// CatalogRole is a provisioned role row. The catalog is the persisted
// subset of the closed role set; memberships reference it by id.
type CatalogRole struct {
	ID          int64     `json:"id"`
	Name        Role      `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership is the per-(user, club) role assignment. ClubID nil means a
// global role. At most one row exists per (user, club) pair.
type Membership struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ClubID     *int64    `json:"club_id"`
	Role       Role      `json:"role"`
	Generation int       `json:"generation"`
	OtherInfo  string    `json:"other_info"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Domain errors surfaced by the mutation services.
var (
	ErrNotFound          = errors.New("rbac: not found")
	ErrRoleUnknown       = errors.New("unknown role name")
	ErrRoleNotAllowed    = errors.New("rbac: role not permitted for this flow")
	ErrRoleScopeMismatch = errors.New("rbac: role scope does not match club context")
	ErrUserNotFound      = errors.New("rbac: user not found")
	ErrClubNotFound      = errors.New("rbac: club not found")
	ErrRoleNotFound      = errors.New("rbac: role not provisioned")
	ErrRoleExists        = errors.New("rbac: role already provisioned")
)
