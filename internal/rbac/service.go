package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store is the persistence contract the mutation service needs. The pgx
// implementation lives in Repository; tests substitute an in-memory one.
type Store interface {
	MembershipReader

	UserExists(ctx context.Context, userID int64) (bool, error)
	ClubExists(ctx context.Context, clubID int64) (bool, error)

	ListRoles(ctx context.Context) ([]CatalogRole, error)
	GetRoleByName(ctx context.Context, name Role) (CatalogRole, error)
	CreateRole(ctx context.Context, name Role, description string) (CatalogRole, error)
	UpdateRole(ctx context.Context, id int64, name Role, description string) (CatalogRole, error)
	DeleteRole(ctx context.Context, id int64) error

	UpsertMembership(ctx context.Context, m Membership) (Membership, error)
	DeleteMembership(ctx context.Context, userID int64, clubID *int64) (bool, error)
	ListClubMemberships(ctx context.Context, clubID int64) ([]Membership, error)
}

// presidentAssignable is the constrained allow-list for the club-president
// flow. STUDENT is included as the remove-from-club sentinel.
var presidentAssignable = map[Role]struct{}{
	RoleStudent:       {},
	RoleClubMember:    {},
	RoleClubOfficer:   {},
	RoleClubPresident: {},
	RoleClubResting:   {},
}

// AssignInput describes a role assignment. A nil ClubID targets the
// user's global membership.
type AssignInput struct {
	UserID     int64
	ClubID     *int64
	Role       Role
	Generation int
	OtherInfo  string
}

// AssignResult reports the outcome of an assignment. Membership is nil
// when the STUDENT sentinel revoked the row.
type AssignResult struct {
	Membership *Membership `json:"membership"`
	Revoked    bool        `json:"revoked"`
}

// Service orchestrates role catalog administration and membership
// mutations. Every mutation invalidates the target user's cached role
// set before returning.
type Service struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(store Store, resolver *Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, resolver: resolver, logger: logger}
}

// ListRoles returns the provisioned role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]CatalogRole, error) {
	return s.store.ListRoles(ctx)
}

// CreateRole provisions a role. The name must belong to the closed role
// set and STUDENT is never storable.
func (s *Service) CreateRole(ctx context.Context, name, description string) (CatalogRole, error) {
	role, err := ParseRole(strings.TrimSpace(name))
	if err != nil {
		return CatalogRole{}, err
	}
	if role == RoleStudent {
		return CatalogRole{}, fmt.Errorf("%w: STUDENT is implicit, not storable", ErrRoleNotAllowed)
	}
	return s.store.CreateRole(ctx, role, strings.TrimSpace(description))
}

// RenameRole swaps a catalog row to another known role name.
func (s *Service) RenameRole(ctx context.Context, id int64, name, description string) (CatalogRole, error) {
	role, err := ParseRole(strings.TrimSpace(name))
	if err != nil {
		return CatalogRole{}, err
	}
	if role == RoleStudent {
		return CatalogRole{}, fmt.Errorf("%w: STUDENT is implicit, not storable", ErrRoleNotAllowed)
	}
	return s.store.UpdateRole(ctx, id, role, strings.TrimSpace(description))
}

// DeleteRole removes a catalog row.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.store.DeleteRole(ctx, id)
}

// AssignRole is the system-admin flow: any role, any (user, club) pair,
// including global roles.
func (s *Service) AssignRole(ctx context.Context, in AssignInput) (AssignResult, error) {
	if !in.Role.Valid() {
		return AssignResult{}, fmt.Errorf("rbac: %w: %q", ErrRoleUnknown, in.Role)
	}
	if in.Role.Global() && in.ClubID != nil {
		return AssignResult{}, fmt.Errorf("%w: %s is a global role", ErrRoleScopeMismatch, in.Role)
	}
	if !in.Role.Global() && in.Role != RoleStudent && in.ClubID == nil {
		return AssignResult{}, fmt.Errorf("%w: %s requires a club", ErrRoleScopeMismatch, in.Role)
	}
	return s.assign(ctx, in)
}

// AssignClubRole is the club-president flow: only club-local roles from
// the allow-list, always within one club.
func (s *Service) AssignClubRole(ctx context.Context, in AssignInput) (AssignResult, error) {
	if in.ClubID == nil {
		return AssignResult{}, fmt.Errorf("%w: club required", ErrRoleScopeMismatch)
	}
	if !in.Role.Valid() {
		return AssignResult{}, fmt.Errorf("rbac: %w: %q", ErrRoleUnknown, in.Role)
	}
	if _, ok := presidentAssignable[in.Role]; !ok {
		return AssignResult{}, fmt.Errorf("%w: %s", ErrRoleNotAllowed, in.Role)
	}
	return s.assign(ctx, in)
}

func (s *Service) assign(ctx context.Context, in AssignInput) (AssignResult, error) {
	ok, err := s.store.UserExists(ctx, in.UserID)
	if err != nil {
		return AssignResult{}, err
	}
	if !ok {
		return AssignResult{}, ErrUserNotFound
	}
	if in.ClubID != nil {
		ok, err := s.store.ClubExists(ctx, *in.ClubID)
		if err != nil {
			return AssignResult{}, err
		}
		if !ok {
			return AssignResult{}, ErrClubNotFound
		}
	}

	var result AssignResult
	if in.Role == RoleStudent {
		// Sentinel: STUDENT is "no stored role" — drop the row.
		if _, err := s.store.DeleteMembership(ctx, in.UserID, in.ClubID); err != nil {
			return AssignResult{}, err
		}
		result = AssignResult{Revoked: true}
	} else {
		m, err := s.store.UpsertMembership(ctx, Membership{
			UserID:     in.UserID,
			ClubID:     in.ClubID,
			Role:       in.Role,
			Generation: in.Generation,
			OtherInfo:  in.OtherInfo,
		})
		if err != nil {
			return AssignResult{}, err
		}
		result = AssignResult{Membership: &m}
	}

	if err := s.resolver.Invalidate(ctx, in.UserID); err != nil {
		// The write committed; a failed invalidation must not report
		// failure, only leave a trace. The cache TTL bounds the staleness.
		s.logger.Warn("cache invalidation failed after membership change",
			slog.Int64("user_id", in.UserID), slog.Any("error", err))
	}
	return result, nil
}

// RevokeMembership removes a (user, club) membership outright.
func (s *Service) RevokeMembership(ctx context.Context, userID int64, clubID *int64) error {
	existed, err := s.store.DeleteMembership(ctx, userID, clubID)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}
	if err := s.resolver.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("cache invalidation failed after membership change",
			slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return nil
}

// ClubMembers lists the membership rows of one club.
func (s *Service) ClubMembers(ctx context.Context, clubID int64) ([]Membership, error) {
	ok, err := s.store.ClubExists(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrClubNotFound
	}
	return s.store.ListClubMemberships(ctx, clubID)
}
