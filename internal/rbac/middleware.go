package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clubhub/clubhub/internal/platform/httpx"
)

// Middleware is the enforcement point wrapping protected handlers. Each
// guarded route declares a permission key; club-scoped routes also name
// the chi route parameter carrying the club id.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
	// OnDecision, when set, observes every evaluation outcome (used for
	// the decision metrics counter).
	OnDecision func(permissionKey, code string)
}

// Require guards a route with a permission key that has no club context.
func (m Middleware) Require(permissionKey string) func(http.Handler) http.Handler {
	return m.guard(permissionKey, "")
}

// RequireClub guards a club-scoped route. The club id is taken from the
// named chi route parameter, falling back to the club_id query parameter.
// There is deliberately no positional or body-sniffing fallback.
func (m Middleware) RequireClub(permissionKey, clubParam string) func(http.Handler) http.Handler {
	return m.guard(permissionKey, clubParam)
}

func (m Middleware) guard(permissionKey, clubParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Pre-flight negotiation carries no credentials to check.
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var clubID *int64
			if clubParam != "" {
				raw := chi.URLParam(r, clubParam)
				if raw == "" {
					raw = r.URL.Query().Get("club_id")
				}
				if raw != "" {
					id, err := strconv.ParseInt(raw, 10, 64)
					if err != nil {
						m.observe(permissionKey, "invalid_club_id")
						httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "invalid club id parameter")
						return
					}
					clubID = &id
				}
			}

			decision := m.Evaluator.Evaluate(r.Context(), permissionKey, clubID)
			m.observe(permissionKey, decision.Code)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			switch decision.Code {
			case CodeClubIDRequired:
				httpx.Error(w, http.StatusBadRequest, decision.Code, "club_id required")
			case CodeLoginRequired:
				httpx.Error(w, http.StatusUnauthorized, decision.Code, "login required")
			default:
				if m.Logger != nil {
					m.Logger.Info("request denied",
						slog.String("permission", permissionKey),
						slog.String("code", decision.Code),
						slog.Int64("user_id", decision.UserID),
						slog.String("reason", decision.Reason))
				}
				httpx.Error(w, http.StatusForbidden, decision.Code, decision.Reason)
			}
		})
	}
}

func (m Middleware) observe(permissionKey, code string) {
	if m.OnDecision != nil {
		m.OnDecision(permissionKey, code)
	}
}
