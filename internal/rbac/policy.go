package rbac

import (
	"fmt"
	"regexp"
	"sort"
)

// PolicyEntry declares which role names may perform a permission key.
type PolicyEntry struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Roles       []Role `json:"roles"`
}

// UnknownKeyMode controls how the table treats permission keys that have
// no declared entry.
type UnknownKeyMode int

const (
	// UnknownKeyStudentFallback resolves unmapped keys to {STUDENT}: any
	// authenticated user passes. This preserves the historical behavior;
	// every evaluation against an unmapped key is logged by the evaluator
	// so typos stay visible.
	UnknownKeyStudentFallback UnknownKeyMode = iota
	// UnknownKeyDeny fails closed on unmapped keys.
	UnknownKeyDeny
)

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// Table is the immutable policy registry. It is validated once at load
// and safe for concurrent reads.
type Table struct {
	entries    map[string]PolicyEntry
	clubScoped map[string]struct{}
	mode       UnknownKeyMode
}

// TableOption customises table construction.
type TableOption func(*Table)

// WithUnknownKeyDeny switches the table to fail closed on unmapped keys.
func WithUnknownKeyDeny() TableOption {
	return func(t *Table) { t.mode = UnknownKeyDeny }
}

// NewTable builds a validated policy table. Malformed keys, unknown role
// names, duplicate entries and club-scoped keys without a declared entry
// are load-time errors.
func NewTable(entries []PolicyEntry, clubScoped []string, opts ...TableOption) (*Table, error) {
	t := &Table{
		entries:    make(map[string]PolicyEntry, len(entries)),
		clubScoped: make(map[string]struct{}, len(clubScoped)),
	}
	for _, entry := range entries {
		if !keyPattern.MatchString(entry.Key) {
			return nil, fmt.Errorf("rbac: malformed permission key %q", entry.Key)
		}
		if _, dup := t.entries[entry.Key]; dup {
			return nil, fmt.Errorf("rbac: duplicate permission key %q", entry.Key)
		}
		for _, role := range entry.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("rbac: policy %q: %w: %q", entry.Key, ErrRoleUnknown, role)
			}
		}
		t.entries[entry.Key] = entry
	}
	for _, key := range clubScoped {
		if _, ok := t.entries[key]; !ok {
			return nil, fmt.Errorf("rbac: club-scoped key %q has no policy entry", key)
		}
		t.clubScoped[key] = struct{}{}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Lookup returns the declared entry for key.
func (t *Table) Lookup(key string) (PolicyEntry, bool) {
	entry, ok := t.entries[key]
	return entry, ok
}

// RequiredRoles resolves the effective required-role set for key. The
// second result is false when the key is unmapped and the table is in
// deny mode; callers must then refuse the evaluation. An unmapped key in
// fallback mode, or a declared entry with an empty role set, resolves to
// {STUDENT}.
func (t *Table) RequiredRoles(key string) ([]Role, bool) {
	entry, ok := t.entries[key]
	if !ok && t.mode == UnknownKeyDeny {
		return nil, false
	}
	if len(entry.Roles) == 0 {
		return []Role{RoleStudent}, true
	}
	roles := make([]Role, len(entry.Roles))
	copy(roles, entry.Roles)
	return roles, true
}

// IsClubScoped reports whether key must be evaluated with a club context.
func (t *Table) IsClubScoped(key string) bool {
	_, ok := t.clubScoped[key]
	return ok
}

// Known reports whether key has a declared entry.
func (t *Table) Known(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Entries returns all declared entries ordered by key.
func (t *Table) Entries() []PolicyEntry {
	out := make([]PolicyEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// roleRanks orders roles for display. The evaluator never consults it:
// access is exact set-membership against a policy's allowed roles.
var roleRanks = map[Role]int{
	RoleStudent:       1,
	RoleClubResting:   1,
	RoleClubMember:    2,
	RoleClubOfficer:   3,
	RoleClubPresident: 4,
	RoleUnionAdmin:    5,
	RoleDeveloper:     6,
}

// Rank returns the informational hierarchy rank for a role, 0 if unknown.
func Rank(r Role) int {
	return roleRanks[r]
}

// Permission keys consumed across the application.
const (
	PermClubsCreate = "clubs.create"
	PermClubsUpdate = "clubs.update"
	PermClubsDelete = "clubs.delete"

	PermMembersView   = "members.view"
	PermMembersUpdate = "members.update"

	PermApplicationsView    = "applications.view"
	PermApplicationsProcess = "applications.process"

	PermNoticesManage = "notices.manage"
	PermBannersManage = "banners.manage"

	PermReservationsCreate  = "reservations.create"
	PermReservationsApprove = "reservations.approve"

	PermRolesManage       = "roles.manage"
	PermMembershipsAssign = "memberships.assign"
	PermUsersView         = "users.view"
	PermPoliciesView      = "policies.view"
)

// DefaultEntries declares the production policy table.
func DefaultEntries() []PolicyEntry {
	return []PolicyEntry{
		{Key: PermClubsCreate, Description: "Register a new club", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermClubsUpdate, Description: "Update a club profile", Roles: []Role{RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermClubsDelete, Description: "Remove a club from the registry", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermMembersView, Description: "View the member list of a club", Roles: []Role{RoleClubMember, RoleClubOfficer, RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermMembersUpdate, Description: "Change club member roles", Roles: []Role{RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermApplicationsView, Description: "View membership applications of a club", Roles: []Role{RoleClubOfficer, RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermApplicationsProcess, Description: "Accept or reject membership applications", Roles: []Role{RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermNoticesManage, Description: "Create, update and delete club notices", Roles: []Role{RoleClubOfficer, RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermBannersManage, Description: "Manage site banners", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermReservationsCreate, Description: "Reserve a room for a club", Roles: []Role{RoleClubOfficer, RoleClubPresident, RoleUnionAdmin, RoleDeveloper}},
		{Key: PermReservationsApprove, Description: "Approve room reservations", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermRolesManage, Description: "Administer the role catalog", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermMembershipsAssign, Description: "Assign any role to any user", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermUsersView, Description: "List registered users", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
		{Key: PermPoliciesView, Description: "Inspect the permission policy table", Roles: []Role{RoleUnionAdmin, RoleDeveloper}},
	}
}

// DefaultClubScoped lists the keys that cannot be evaluated without a
// club context.
func DefaultClubScoped() []string {
	return []string{
		PermClubsUpdate,
		PermClubsDelete,
		PermMembersView,
		PermMembersUpdate,
		PermApplicationsView,
		PermApplicationsProcess,
		PermNoticesManage,
		PermReservationsCreate,
	}
}

// DefaultTable builds the production policy table.
func DefaultTable(opts ...TableOption) (*Table, error) {
	return NewTable(DefaultEntries(), DefaultClubScoped(), opts...)
}
