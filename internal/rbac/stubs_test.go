package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// fixedIdentity resolves to a constant caller.
type fixedIdentity struct {
	id int64
	ok bool
}

func (f fixedIdentity) CurrentUserID(ctx context.Context) (int64, bool) {
	return f.id, f.ok
}

// stubReader serves fixed role sets, with optional error injection.
type stubReader struct {
	global    []Role
	clubs     map[int64][]Role
	globalErr error
	clubErr   error
	// globalCalls counts store reads so cache hits are observable.
	globalCalls int
}

func (s *stubReader) GlobalRoles(ctx context.Context, userID int64) ([]Role, error) {
	s.globalCalls++
	if s.globalErr != nil {
		return nil, s.globalErr
	}
	return s.global, nil
}

func (s *stubReader) ClubRoles(ctx context.Context, userID, clubID int64) ([]Role, error) {
	if s.clubErr != nil {
		return nil, s.clubErr
	}
	return s.clubs[clubID], nil
}

// memStore is an in-memory Store honouring the one-row-per-(user, club)
// invariant the same way the SQL schema does.
type memStore struct {
	users  map[int64]bool
	clubs  map[int64]bool
	roles  map[Role]CatalogRole
	nextID int64

	memberships map[string]Membership

	upsertErr error
	deleteErr error
}

func newMemStore() *memStore {
	s := &memStore{
		users:       make(map[int64]bool),
		clubs:       make(map[int64]bool),
		roles:       make(map[Role]CatalogRole),
		memberships: make(map[string]Membership),
		nextID:      1,
	}
	for _, role := range AllRoles() {
		if role == RoleStudent {
			continue
		}
		s.roles[role] = CatalogRole{ID: s.nextID, Name: role}
		s.nextID++
	}
	return s
}

func pairKey(userID int64, clubID *int64) string {
	if clubID == nil {
		return fmt.Sprintf("%d|global", userID)
	}
	return fmt.Sprintf("%d|%d", userID, *clubID)
}

func (s *memStore) GlobalRoles(ctx context.Context, userID int64) ([]Role, error) {
	var out []Role
	for _, m := range s.memberships {
		if m.UserID == userID && m.ClubID == nil {
			out = append(out, m.Role)
		}
	}
	return out, nil
}

func (s *memStore) ClubRoles(ctx context.Context, userID, clubID int64) ([]Role, error) {
	var out []Role
	for _, m := range s.memberships {
		if m.UserID == userID && m.ClubID != nil && *m.ClubID == clubID {
			out = append(out, m.Role)
		}
	}
	return out, nil
}

func (s *memStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	return s.users[userID], nil
}

func (s *memStore) ClubExists(ctx context.Context, clubID int64) (bool, error) {
	return s.clubs[clubID], nil
}

func (s *memStore) ListRoles(ctx context.Context) ([]CatalogRole, error) {
	out := make([]CatalogRole, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *memStore) GetRoleByName(ctx context.Context, name Role) (CatalogRole, error) {
	role, ok := s.roles[name]
	if !ok {
		return CatalogRole{}, ErrRoleNotFound
	}
	return role, nil
}

func (s *memStore) CreateRole(ctx context.Context, name Role, description string) (CatalogRole, error) {
	if _, ok := s.roles[name]; ok {
		return CatalogRole{}, ErrRoleExists
	}
	role := CatalogRole{ID: s.nextID, Name: name, Description: description}
	s.nextID++
	s.roles[name] = role
	return role, nil
}

func (s *memStore) UpdateRole(ctx context.Context, id int64, name Role, description string) (CatalogRole, error) {
	for old, role := range s.roles {
		if role.ID == id {
			if old != name {
				if _, ok := s.roles[name]; ok {
					return CatalogRole{}, ErrRoleExists
				}
				delete(s.roles, old)
			}
			role.Name = name
			role.Description = description
			s.roles[name] = role
			return role, nil
		}
	}
	return CatalogRole{}, ErrRoleNotFound
}

func (s *memStore) DeleteRole(ctx context.Context, id int64) error {
	for name, role := range s.roles {
		if role.ID == id {
			delete(s.roles, name)
			return nil
		}
	}
	return ErrRoleNotFound
}

func (s *memStore) UpsertMembership(ctx context.Context, m Membership) (Membership, error) {
	if s.upsertErr != nil {
		return Membership{}, s.upsertErr
	}
	if _, ok := s.roles[m.Role]; !ok {
		return Membership{}, ErrRoleNotFound
	}
	key := pairKey(m.UserID, m.ClubID)
	if existing, ok := s.memberships[key]; ok {
		existing.Role = m.Role
		existing.Generation = m.Generation
		existing.OtherInfo = m.OtherInfo
		s.memberships[key] = existing
		return existing, nil
	}
	m.ID = s.nextID
	s.nextID++
	m.JoinedAt = time.Now()
	s.memberships[key] = m
	return m, nil
}

func (s *memStore) DeleteMembership(ctx context.Context, userID int64, clubID *int64) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	key := pairKey(userID, clubID)
	_, ok := s.memberships[key]
	delete(s.memberships, key)
	return ok, nil
}

func (s *memStore) ListClubMemberships(ctx context.Context, clubID int64) ([]Membership, error) {
	var out []Membership
	for _, m := range s.memberships {
		if m.ClubID != nil && *m.ClubID == clubID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) rowCount(userID int64, clubID *int64) int {
	count := 0
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		switch {
		case clubID == nil && m.ClubID == nil:
			count++
		case clubID != nil && m.ClubID != nil && *m.ClubID == *clubID:
			count++
		}
	}
	return count
}

var _ Store = (*memStore)(nil)
var errStoreDown = errors.New("store unreachable")
