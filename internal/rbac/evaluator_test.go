package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, opts ...TableOption) *Table {
	t.Helper()
	table, err := NewTable([]PolicyEntry{
		{Key: "clubs.update", Description: "Update a club profile", Roles: []Role{RoleClubPresident, RoleDeveloper}},
		{Key: "members.view", Description: "View members", Roles: []Role{RoleClubMember, RoleClubPresident}},
	}, []string{"clubs.update", "members.view"}, opts...)
	require.NoError(t, err)
	return table
}

func TestEvaluateClubPresident(t *testing.T) {
	store := &stubReader{clubs: map[int64][]Role{42: {RoleClubPresident}}}
	eval := NewEvaluator(newTestTable(t), NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)

	t.Run("president of the club passes", func(t *testing.T) {
		decision := eval.Evaluate(t.Context(), "clubs.update", clubPtr(42))
		assert.True(t, decision.Allowed)
		assert.Equal(t, CodeOK, decision.Code)
		assert.Equal(t, int64(7), decision.UserID)
		assert.Contains(t, decision.Reason, "CLUB_PRESIDENT")
	})

	t.Run("no role in another club denies", func(t *testing.T) {
		decision := eval.Evaluate(t.Context(), "clubs.update", clubPtr(9))
		assert.False(t, decision.Allowed)
		assert.Equal(t, CodeInsufficientRole, decision.Code)
		assert.Contains(t, decision.Reason, "CLUB_PRESIDENT")
		assert.Contains(t, decision.Reason, "DEVELOPER")
		assert.Contains(t, decision.Reason, "{}")
		assert.Empty(t, decision.UserRoles)
		assert.Equal(t, []Role{RoleClubPresident, RoleDeveloper}, decision.RequiredRoles)
	})
}

func TestEvaluateGlobalRoleSatisfiesClubScopedPolicy(t *testing.T) {
	store := &stubReader{global: []Role{RoleDeveloper}}
	eval := NewEvaluator(newTestTable(t), NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)

	decision := eval.Evaluate(t.Context(), "clubs.update", clubPtr(42))
	assert.True(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "DEVELOPER")
}

func TestEvaluateClubScopeGuard(t *testing.T) {
	// Even a developer is denied when a club-scoped key has no club id.
	store := &stubReader{global: []Role{RoleDeveloper}}
	eval := NewEvaluator(newTestTable(t), NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)

	decision := eval.Evaluate(t.Context(), "clubs.update", nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, CodeClubIDRequired, decision.Code)
	assert.Zero(t, decision.UserID, "user stays unresolved, the check never reaches the session")
}

func TestEvaluateUnmappedKeyFallback(t *testing.T) {
	store := &stubReader{}

	t.Run("authenticated user with no memberships passes", func(t *testing.T) {
		eval := NewEvaluator(newTestTable(t), NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)
		decision := eval.Evaluate(t.Context(), "nonexistent.key", nil)
		assert.True(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "STUDENT")
	})

	t.Run("no session denies with login required", func(t *testing.T) {
		eval := NewEvaluator(newTestTable(t), NewResolver(store, nil, nil), fixedIdentity{}, nil)
		decision := eval.Evaluate(t.Context(), "nonexistent.key", nil)
		assert.False(t, decision.Allowed)
		assert.Equal(t, CodeLoginRequired, decision.Code)
		assert.Zero(t, decision.UserID)
	})

	t.Run("deny mode refuses unmapped keys outright", func(t *testing.T) {
		eval := NewEvaluator(newTestTable(t, WithUnknownKeyDeny()), NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)
		decision := eval.Evaluate(t.Context(), "nonexistent.key", nil)
		assert.False(t, decision.Allowed)
		assert.Equal(t, CodeUnknownPermission, decision.Code)
	})
}

func TestEvaluateLoginRequired(t *testing.T) {
	eval := NewEvaluator(newTestTable(t), NewResolver(&stubReader{}, nil, nil), fixedIdentity{}, nil)
	decision := eval.Evaluate(t.Context(), "clubs.update", clubPtr(42))
	assert.False(t, decision.Allowed)
	assert.Equal(t, CodeLoginRequired, decision.Code)
}

func TestEvaluateInfrastructureFailureFailsClosed(t *testing.T) {
	store := &stubReader{globalErr: errStoreDown}
	eval := NewEvaluator(newTestTable(t), NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)

	decision := eval.Evaluate(t.Context(), "clubs.update", clubPtr(42))
	assert.False(t, decision.Allowed)
	assert.Equal(t, CodeResolutionFailed, decision.Code)
	assert.Contains(t, decision.Reason, "error")
}

func TestEvaluateImplicitStudentStanding(t *testing.T) {
	table, err := NewTable([]PolicyEntry{
		{Key: "notices.read", Description: "Read notices", Roles: []Role{RoleStudent}},
	}, nil)
	require.NoError(t, err)
	// The user holds club roles but no STUDENT row exists anywhere;
	// authentication alone grants STUDENT standing.
	store := &stubReader{clubs: map[int64][]Role{42: {RoleClubMember}}}
	eval := NewEvaluator(table, NewResolver(store, nil, nil), fixedIdentity{id: 7, ok: true}, nil)

	decision := eval.Evaluate(t.Context(), "notices.read", nil)
	assert.True(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "STUDENT")
}
