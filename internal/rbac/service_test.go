package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memStore, *Resolver) {
	t.Helper()
	store := newMemStore()
	store.users[7] = true
	store.clubs[42] = true
	resolver := NewResolver(store, newTestCache(t), nil)
	return NewService(store, resolver, nil), store, resolver
}

func TestAssignRoleUpdatesRowInPlace(t *testing.T) {
	service, store, _ := newTestService(t)

	first, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: RoleClubMember, Generation: 23})
	require.NoError(t, err)
	require.NotNil(t, first.Membership)

	second, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: RoleClubOfficer, Generation: 23})
	require.NoError(t, err)
	require.NotNil(t, second.Membership)

	assert.Equal(t, 1, store.rowCount(7, clubPtr(42)), "repeated assignment must never grow the row count")
	assert.Equal(t, first.Membership.ID, second.Membership.ID, "the existing row is updated in place")
	assert.Equal(t, RoleClubOfficer, second.Membership.Role)
}

func TestAssignStudentSentinelDeletesRow(t *testing.T) {
	service, store, resolver := newTestService(t)

	_, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: RoleClubMember})
	require.NoError(t, err)
	require.Equal(t, 1, store.rowCount(7, clubPtr(42)))

	result, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: RoleStudent})
	require.NoError(t, err)
	assert.True(t, result.Revoked)
	assert.Nil(t, result.Membership)
	assert.Equal(t, 0, store.rowCount(7, clubPtr(42)))

	roles, err := resolver.ClubRoles(t.Context(), 7, 42)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestAssignInvalidatesCache(t *testing.T) {
	service, _, resolver := newTestService(t)

	// Prime the cache with the pre-change global set.
	roles, err := resolver.EffectiveRoles(t.Context(), 7, nil)
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = service.AssignRole(t.Context(), AssignInput{UserID: 7, Role: RoleUnionAdmin})
	require.NoError(t, err)

	// The very next read must see the new state, not the cached one.
	roles, err = resolver.EffectiveRoles(t.Context(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleUnionAdmin}, roles)
}

func TestAssignRoleAdminFlow(t *testing.T) {
	service, _, _ := newTestService(t)

	t.Run("global role with club id is rejected", func(t *testing.T) {
		_, err := service.AssignRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: RoleUnionAdmin})
		assert.ErrorIs(t, err, ErrRoleScopeMismatch)
	})

	t.Run("club role without club id is rejected", func(t *testing.T) {
		_, err := service.AssignRole(t.Context(), AssignInput{UserID: 7, Role: RoleClubOfficer})
		assert.ErrorIs(t, err, ErrRoleScopeMismatch)
	})

	t.Run("unknown role name is rejected", func(t *testing.T) {
		_, err := service.AssignRole(t.Context(), AssignInput{UserID: 7, Role: Role("WIZARD")})
		assert.ErrorIs(t, err, ErrRoleUnknown)
	})

	t.Run("unknown user is rejected", func(t *testing.T) {
		_, err := service.AssignRole(t.Context(), AssignInput{UserID: 99, Role: RoleUnionAdmin})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown club is rejected", func(t *testing.T) {
		_, err := service.AssignRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(99), Role: RoleClubMember})
		assert.ErrorIs(t, err, ErrClubNotFound)
	})
}

func TestAssignClubRoleAllowList(t *testing.T) {
	service, _, _ := newTestService(t)

	// Presidents can hand out club-local roles only.
	for _, role := range []Role{RoleUnionAdmin, RoleDeveloper} {
		_, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: role})
		assert.ErrorIs(t, err, ErrRoleNotAllowed, string(role))
	}

	for _, role := range []Role{RoleClubMember, RoleClubOfficer, RoleClubPresident, RoleClubResting} {
		_, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: role})
		assert.NoError(t, err, string(role))
	}
}

func TestRevokeMembership(t *testing.T) {
	service, store, resolver := newTestService(t)

	_, err := service.AssignRole(t.Context(), AssignInput{UserID: 7, Role: RoleDeveloper})
	require.NoError(t, err)

	// Prime the cache so revocation visibly invalidates it.
	roles, err := resolver.GlobalRoles(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleDeveloper}, roles)

	require.NoError(t, service.RevokeMembership(t.Context(), 7, nil))
	assert.Equal(t, 0, store.rowCount(7, nil))

	roles, err = resolver.GlobalRoles(t.Context(), 7)
	require.NoError(t, err)
	assert.Empty(t, roles)

	assert.ErrorIs(t, service.RevokeMembership(t.Context(), 7, nil), ErrNotFound)
}

func TestRoleCatalogConstrainedToEnum(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateRole(t.Context(), "SUPER_ADMIN", "not a thing")
	assert.ErrorIs(t, err, ErrRoleUnknown)

	_, err = service.CreateRole(t.Context(), "STUDENT", "implicit standing")
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	_, err = service.CreateRole(t.Context(), "CLUB_MEMBER", "already provisioned by the store fixture")
	assert.ErrorIs(t, err, ErrRoleExists)
}

func TestClubMembers(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.AssignClubRole(t.Context(), AssignInput{UserID: 7, ClubID: clubPtr(42), Role: RoleClubPresident, Generation: 30})
	require.NoError(t, err)

	members, err := service.ClubMembers(t.Context(), 42)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, RoleClubPresident, members[0].Role)
	assert.Equal(t, 30, members[0].Generation)

	_, err = service.ClubMembers(t.Context(), 99)
	assert.ErrorIs(t, err, ErrClubNotFound)
}
