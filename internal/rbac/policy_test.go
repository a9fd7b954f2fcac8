package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableValidation(t *testing.T) {
	t.Run("malformed key", func(t *testing.T) {
		_, err := NewTable([]PolicyEntry{{Key: "NotDotted", Roles: []Role{RoleDeveloper}}}, nil)
		require.Error(t, err)
	})

	t.Run("unknown role name", func(t *testing.T) {
		_, err := NewTable([]PolicyEntry{{Key: "clubs.update", Roles: []Role{"CLUB_PRESIDANT"}}}, nil)
		require.ErrorIs(t, err, ErrRoleUnknown)
	})

	t.Run("duplicate key", func(t *testing.T) {
		entries := []PolicyEntry{
			{Key: "clubs.update", Roles: []Role{RoleDeveloper}},
			{Key: "clubs.update", Roles: []Role{RoleUnionAdmin}},
		}
		_, err := NewTable(entries, nil)
		require.Error(t, err)
	})

	t.Run("club scoped key without entry", func(t *testing.T) {
		_, err := NewTable(nil, []string{"clubs.update"})
		require.Error(t, err)
	})

	t.Run("default table loads", func(t *testing.T) {
		table, err := DefaultTable()
		require.NoError(t, err)
		for _, key := range DefaultClubScoped() {
			assert.True(t, table.IsClubScoped(key), key)
		}
	})
}

func TestRequiredRolesFallback(t *testing.T) {
	table, err := NewTable([]PolicyEntry{
		{Key: "clubs.update", Roles: []Role{RoleClubPresident, RoleDeveloper}},
		{Key: "notices.read", Roles: nil},
	}, nil)
	require.NoError(t, err)

	t.Run("declared entry", func(t *testing.T) {
		roles, ok := table.RequiredRoles("clubs.update")
		require.True(t, ok)
		assert.Equal(t, []Role{RoleClubPresident, RoleDeveloper}, roles)
	})

	t.Run("declared entry with empty role set falls back to STUDENT", func(t *testing.T) {
		roles, ok := table.RequiredRoles("notices.read")
		require.True(t, ok)
		assert.Equal(t, []Role{RoleStudent}, roles)
	})

	t.Run("unmapped key falls back to STUDENT", func(t *testing.T) {
		roles, ok := table.RequiredRoles("nonexistent.key")
		require.True(t, ok)
		assert.Equal(t, []Role{RoleStudent}, roles)
	})
}

func TestRequiredRolesDenyMode(t *testing.T) {
	table, err := NewTable([]PolicyEntry{
		{Key: "clubs.update", Roles: []Role{RoleDeveloper}},
	}, nil, WithUnknownKeyDeny())
	require.NoError(t, err)

	_, ok := table.RequiredRoles("nonexistent.key")
	assert.False(t, ok)

	// Declared keys are unaffected by the mode.
	roles, ok := table.RequiredRoles("clubs.update")
	require.True(t, ok)
	assert.Equal(t, []Role{RoleDeveloper}, roles)
}

func TestRankIsInformationalOnly(t *testing.T) {
	assert.Equal(t, 1, Rank(RoleStudent))
	assert.Equal(t, 6, Rank(RoleDeveloper))
	assert.Equal(t, 0, Rank(Role("NOPE")))

	// A higher rank never satisfies a policy by implication: the
	// evaluator intersects against the declared set only.
	table, err := NewTable([]PolicyEntry{
		{Key: "members.view", Roles: []Role{RoleClubMember}},
	}, nil)
	require.NoError(t, err)
	resolver := NewResolver(&stubReader{global: []Role{RoleUnionAdmin}}, nil, nil)
	eval := NewEvaluator(table, resolver, fixedIdentity{id: 9, ok: true}, nil)
	decision := eval.Evaluate(t.Context(), "members.view", nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, CodeInsufficientRole, decision.Code)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("CLUB_OFFICER")
	require.NoError(t, err)
	assert.Equal(t, RoleClubOfficer, role)

	_, err = ParseRole("club_officer")
	assert.ErrorIs(t, err, ErrRoleUnknown)
}
