package notices

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

// Handler manages club notice endpoints. Routes are mounted under
// /clubs/{clubID}/notices.
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

// MountRoutes registers notice routes on a club-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{noticeID}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireClub(rbac.PermNoticesManage, "clubID"))
		r.Post("/", h.create)
		r.Put("/{noticeID}", h.update)
		r.Delete("/{noticeID}", h.remove)
	})
}

type noticeRequest struct {
	Title  string `json:"title" validate:"required,min=1,max=200"`
	Body   string `json:"body" validate:"required,max=10000"`
	Pinned bool   `json:"pinned"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	page, perPage := shared.PageParams(r, 100)
	notices, err := h.service.ListByClub(r.Context(), clubID, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list notices", slog.Int64("club_id", clubID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if notices == nil {
		notices = []Notice{}
	}
	httpx.Success(w, http.StatusOK, notices)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	clubID, noticeID, err := scopedIDs(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_id", "path ids must be numeric")
		return
	}
	notice, err := h.service.Get(r.Context(), clubID, noticeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, notice)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r, "clubID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	authorID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "login_required", "authentication required")
		return
	}
	var req noticeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	notice, err := h.service.Create(r.Context(), clubID, authorID, req.Title, req.Body, req.Pinned)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, notice)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	clubID, noticeID, err := scopedIDs(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_id", "path ids must be numeric")
		return
	}
	var req noticeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	notice, err := h.service.Update(r.Context(), clubID, noticeID, req.Title, req.Body, req.Pinned)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, notice)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	clubID, noticeID, err := scopedIDs(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_id", "path ids must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), clubID, noticeID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func scopedIDs(r *http.Request) (clubID, noticeID int64, err error) {
	clubID, err = pathID(r, "clubID")
	if err != nil {
		return 0, 0, err
	}
	noticeID, err = pathID(r, "noticeID")
	if err != nil {
		return 0, 0, err
	}
	return clubID, noticeID, nil
}
