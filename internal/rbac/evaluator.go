package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clubhub/clubhub/internal/shared"
)

// Decision codes. Stable identifiers the HTTP layer maps onto statuses.
const (
	CodeOK                = "ok"
	CodeClubIDRequired    = "club_id_required"
	CodeLoginRequired     = "login_required"
	CodeInsufficientRole  = "insufficient_role"
	CodeUnknownPermission = "unknown_permission"
	CodeResolutionFailed  = "resolution_failed"
)

// Decision is the outcome of a permission evaluation.
type Decision struct {
	Allowed       bool
	Code          string
	Reason        string
	UserID        int64
	UserRoles     []Role
	RequiredRoles []Role
}

// Identity resolves the current caller. The production implementation
// reads the session from context; tests substitute fixed identities.
type Identity interface {
	CurrentUserID(ctx context.Context) (int64, bool)
}

// SessionIdentity resolves the caller from the request session.
type SessionIdentity struct{}

// CurrentUserID implements Identity over shared session state.
func (SessionIdentity) CurrentUserID(ctx context.Context) (int64, bool) {
	return shared.CurrentUserID(ctx)
}

// Evaluator combines the policy table, the caller identity and the role
// resolver into a single allow/deny decision. It never returns an error:
// infrastructure failures during resolution become structured denials.
type Evaluator struct {
	table    *Table
	resolver *Resolver
	identity Identity
	logger   *slog.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(table *Table, resolver *Resolver, identity Identity, logger *slog.Logger) *Evaluator {
	if identity == nil {
		identity = SessionIdentity{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{table: table, resolver: resolver, identity: identity, logger: logger}
}

// Evaluate decides whether the current caller may perform permissionKey
// in the given club context (nil for global).
func (e *Evaluator) Evaluate(ctx context.Context, permissionKey string, clubID *int64) Decision {
	required, ok := e.table.RequiredRoles(permissionKey)
	if !ok {
		return Decision{
			Code:   CodeUnknownPermission,
			Reason: fmt.Sprintf("permission %q is not declared", permissionKey),
		}
	}
	if !e.table.Known(permissionKey) {
		// Visible trace for typo'd keys resolving to the STUDENT fallback.
		e.logger.Warn("unmapped permission key evaluated",
			slog.String("permission", permissionKey))
	}

	if e.table.IsClubScoped(permissionKey) && clubID == nil {
		return Decision{
			Code:          CodeClubIDRequired,
			Reason:        "club_id required for " + permissionKey,
			RequiredRoles: required,
		}
	}

	userID, authed := e.identity.CurrentUserID(ctx)
	if !authed {
		return Decision{
			Code:          CodeLoginRequired,
			Reason:        "login required",
			RequiredRoles: required,
		}
	}

	held, err := e.resolver.EffectiveRoles(ctx, userID, clubID)
	if err != nil {
		// Fail closed: callers get a structured deny, never a raw error.
		e.logger.Error("role resolution failed",
			slog.String("permission", permissionKey),
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return Decision{
			Code:          CodeResolutionFailed,
			Reason:        "error: could not resolve roles for user",
			UserID:        userID,
			RequiredRoles: required,
		}
	}

	// Any authenticated user carries implicit STUDENT standing.
	if containsRole(required, RoleStudent) {
		return Decision{
			Allowed:       true,
			Code:          CodeOK,
			Reason:        "granted via STUDENT",
			UserID:        userID,
			UserRoles:     held,
			RequiredRoles: required,
		}
	}

	matched := intersectRoles(held, required)
	if len(matched) == 0 {
		return Decision{
			Code:   CodeInsufficientRole,
			Reason: fmt.Sprintf("required one of %s, held %s", formatRoles(required), formatRoles(held)),
			UserID: userID, UserRoles: held, RequiredRoles: required,
		}
	}
	return Decision{
		Allowed: true,
		Code:    CodeOK,
		Reason:  "granted via " + formatRoles(matched),
		UserID:  userID, UserRoles: held, RequiredRoles: required,
	}
}

func containsRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func intersectRoles(held, required []Role) []Role {
	set := make(map[Role]struct{}, len(held))
	for _, r := range held {
		set[r] = struct{}{}
	}
	var out []Role
	for _, r := range required {
		if _, ok := set[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func formatRoles(roles []Role) string {
	if len(roles) == 0 {
		return "{}"
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return "{" + strings.Join(names, ", ") + "}"
}
