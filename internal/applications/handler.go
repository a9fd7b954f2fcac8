package applications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubhub/clubhub/internal/platform/httpx"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/internal/shared"
)

// Handler manages membership application endpoints. Routes are mounted
// under /clubs/{clubID}/applications.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validator: validator.New()}
}

// MountRoutes registers application routes on a club-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.apply)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireClub(rbac.PermApplicationsView, "clubID"))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireClub(rbac.PermApplicationsProcess, "clubID"))
		r.Post("/{applicationID}/accept", h.accept)
		r.Post("/{applicationID}/reject", h.reject)
	})
}

type applyRequest struct {
	Motivation string `json:"motivation" validate:"required,min=10,max=2000"`
	Generation int    `json:"generation" validate:"required,min=1,max=99"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "login_required", "authentication required")
		return
	}
	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	app, err := h.service.Apply(r.Context(), clubID, userID, req.Motivation, req.Generation)
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			httpx.Error(w, http.StatusConflict, "duplicate", "a pending application already exists")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, app)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "", StatusPending, StatusAccepted, StatusRejected:
	default:
		httpx.Error(w, http.StatusBadRequest, "invalid_status", "status must be pending, accepted or rejected")
		return
	}
	page, perPage := shared.PageParams(r, 100)
	apps, err := h.service.ListByClub(r.Context(), clubID, status, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list applications", slog.Int64("club_id", clubID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if apps == nil {
		apps = []Application{}
	}
	httpx.Success(w, http.StatusOK, apps)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Accept)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, clubID, id, deciderID int64) (Application, error)) {
	clubID, err := pathID(r, "clubID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	appID, err := pathID(r, "applicationID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_application_id", "application id must be numeric")
		return
	}
	deciderID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "login_required", "authentication required")
		return
	}
	app, err := fn(r.Context(), clubID, appID, deciderID)
	if err != nil {
		if errors.Is(err, ErrAlreadyDecided) {
			httpx.Error(w, http.StatusConflict, "already_decided", "application was already processed")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, app)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
