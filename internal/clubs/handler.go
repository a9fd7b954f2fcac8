package clubs

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubhub/clubhub/internal/platform/httpx"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/internal/shared"
)

// Handler manages club endpoints.
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

// MountRoutes registers club routes. Item routes are registered as plain
// method routes so the app router keeps sole ownership of the /{clubID}
// subrouter for nested resources.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listClubs)
	r.Get("/{clubID}", h.getClub)
	r.With(h.rbac.Require(rbac.PermClubsCreate)).Post("/", h.createClub)
	r.With(h.rbac.RequireClub(rbac.PermClubsUpdate, "clubID")).Put("/{clubID}", h.updateClub)
	r.With(h.rbac.RequireClub(rbac.PermClubsDelete, "clubID")).Delete("/{clubID}", h.deactivateClub)
}

type clubRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Category    string `json:"category" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) listClubs(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r, 100)
	clubs, err := h.service.ListClubs(r.Context(), r.URL.Query().Get("q"), perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list clubs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if clubs == nil {
		clubs = []Club{}
	}
	httpx.Success(w, http.StatusOK, clubs)
}

func (h *Handler) getClub(w http.ResponseWriter, r *http.Request) {
	id, err := clubID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	club, err := h.service.GetClub(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, club)
}

func (h *Handler) createClub(w http.ResponseWriter, r *http.Request) {
	var req clubRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	club, err := h.service.CreateClub(r.Context(), req.Name, req.Category, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, club)
}

func (h *Handler) updateClub(w http.ResponseWriter, r *http.Request) {
	id, err := clubID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	var req clubRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	club, err := h.service.UpdateClub(r.Context(), id, req.Name, req.Category, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, club)
}

func (h *Handler) deactivateClub(w http.ResponseWriter, r *http.Request) {
	id, err := clubID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	if err := h.service.DeactivateClub(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil)
}

func clubID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "clubID"), 10, 64)
}
