package reservations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubhub/clubhub/internal/platform/httpx"
	"github.com/clubhub/clubhub/internal/rbac"
	"github.com/clubhub/clubhub/internal/shared"
)

// Handler manages room reservation endpoints. Club-scoped routes are
// mounted under /clubs/{clubID}/reservations; approval routes are
// global because the union reviews all rooms.
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

// MountClubRoutes registers club-scoped reservation routes.
func (h *Handler) MountClubRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireClub(rbac.PermReservationsCreate, "clubID"))
		r.Post("/", h.request)
	})
}

// MountAdminRoutes registers the union-wide approval routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermReservationsApprove))
		r.Post("/{reservationID}/approve", h.approve)
		r.Post("/{reservationID}/reject", h.reject)
	})
	r.Post("/{reservationID}/cancel", h.cancel)
}

type requestBody struct {
	RoomID   int64     `json:"room_id" validate:"required,min=1"`
	Purpose  string    `json:"purpose" validate:"required,min=3,max=500"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	clubID, err := strconv.ParseInt(chi.URLParam(r, "clubID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "login_required", "authentication required")
		return
	}
	var req requestBody
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	res, err := h.service.Request(r.Context(), clubID, req.RoomID, userID, req.Purpose, req.StartsAt, req.EndsAt)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidWindow):
			httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		case errors.Is(err, ErrSlotTaken):
			httpx.Error(w, http.StatusConflict, "slot_taken", err.Error())
		default:
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.Success(w, http.StatusCreated, res)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	clubID, err := strconv.ParseInt(chi.URLParam(r, "clubID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "club id must be numeric")
		return
	}
	page, perPage := shared.PageParams(r, 100)
	out, err := h.service.ListByClub(r.Context(), clubID, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list reservations", slog.Int64("club_id", clubID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Reservation{}
	}
	httpx.Success(w, http.StatusOK, out)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, deciderID int64) (Reservation, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reservationID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_reservation_id", "reservation id must be numeric")
		return
	}
	deciderID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "login_required", "authentication required")
		return
	}
	res, err := fn(r.Context(), id, deciderID)
	if err != nil {
		if errors.Is(err, ErrAlreadyDecided) {
			httpx.Error(w, http.StatusConflict, "already_decided", "reservation was already processed")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, res)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reservationID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_reservation_id", "reservation id must be numeric")
		return
	}
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "login_required", "authentication required")
		return
	}
	if err := h.service.Cancel(r.Context(), id, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil)
}
