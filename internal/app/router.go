package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clubhub/clubhub/internal/applications"
	"github.com/clubhub/clubhub/internal/auth"
	"github.com/clubhub/clubhub/internal/banners"
	"github.com/clubhub/clubhub/internal/clubs"
	"github.com/clubhub/clubhub/internal/notices"
	"github.com/clubhub/clubhub/internal/observability"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/internal/reservations"
	"github.com/clubhub/clubhub/internal/shared"
	"github.com/clubhub/clubhub/internal/users"
	"github.com/clubhub/clubhub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	SessionManager      *shared.SessionManager
	CSRFManager         *shared.CSRFManager
	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	ClubsHandler        *clubs.Handler
	NoticesHandler      *notices.Handler
	ApplicationsHandler *applications.Handler
	ReservationsHandler *reservations.Handler
	BannersHandler      *banners.Handler
	RBACHandler         *rbac.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router for the API server.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/banners", params.BannersHandler.MountRoutes)

	r.Route("/clubs", func(r chi.Router) {
		params.ClubsHandler.MountRoutes(r)
		r.Route("/{clubID}", func(r chi.Router) {
			params.RBACHandler.MountClubRoutes(r)
			r.Route("/notices", params.NoticesHandler.MountRoutes)
			r.Route("/applications", params.ApplicationsHandler.MountRoutes)
			r.Route("/reservations", params.ReservationsHandler.MountClubRoutes)
		})
	})

	r.Route("/reservations", params.ReservationsHandler.MountAdminRoutes)

	r.Route("/admin", params.RBACHandler.MountAdminRoutes)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
