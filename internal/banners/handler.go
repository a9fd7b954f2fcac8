package banners

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubhub/clubhub/internal/platform/httpx"
	"github.com/clubhub/clubhub/internal/rbac"
)

// Handler manages banner endpoints.
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

// MountRoutes registers banner routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listActive)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermBannersManage))
		r.Get("/all", h.listAll)
		r.Post("/", h.create)
		r.Put("/{bannerID}", h.update)
		r.Delete("/{bannerID}", h.remove)
	})
}

type bannerRequest struct {
	Title    string     `json:"title" validate:"required,min=1,max=200"`
	ImageURL string     `json:"image_url" validate:"required,url"`
	LinkURL  string     `json:"link_url" validate:"omitempty,url"`
	StartsAt time.Time  `json:"starts_at" validate:"required"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListActive(r.Context())
	if err != nil {
		h.logger.Error("list active banners", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if banners == nil {
		banners = []Banner{}
	}
	httpx.Success(w, http.StatusOK, banners)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListAll(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if banners == nil {
		banners = []Banner{}
	}
	httpx.Success(w, http.StatusOK, banners)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	banner, err := h.service.Create(r.Context(), Banner{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, banner)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bannerID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_banner_id", "banner id must be numeric")
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	banner, err := h.service.Update(r.Context(), id, Banner{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, banner)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bannerID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_banner_id", "banner id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (bannerRequest, bool) {
	var req bannerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return req, false
	}
	if req.EndsAt != nil && !req.EndsAt.After(req.StartsAt) {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", "ends_at must be after starts_at")
		return req, false
	}
	return req, true
}
