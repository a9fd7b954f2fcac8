package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clubhub/clubhub/internal/platform/httpx"
)

// Handler exposes the role catalog, policy table and membership
// administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	table     *Table
	mw        Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, table *Table, mw Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, table: table, mw: mw, validator: validator.New()}
}

// MountAdminRoutes registers the union-admin surface.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(PermPoliciesView))
		r.Get("/policies", h.listPolicies)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(PermRolesManage))
		r.Get("/roles", h.listRoles)
		r.Post("/roles", h.createRole)
		r.Put("/roles/{roleID}", h.renameRole)
		r.Delete("/roles/{roleID}", h.deleteRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(PermMembershipsAssign))
		r.Put("/memberships", h.assignRole)
		r.Delete("/memberships", h.revokeMembership)
	})
}

// MountClubRoutes registers the club-scoped member administration
// surface, mounted under /clubs/{clubID}.
func (h *Handler) MountClubRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireClub(PermMembersView, "clubID"))
		r.Get("/members", h.listClubMembers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireClub(PermMembersUpdate, "clubID"))
		r.Put("/members", h.assignClubRole)
	})
}

type policyView struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Roles       []Role `json:"roles"`
	ClubScoped  bool   `json:"club_scoped"`
}

type roleView struct {
	CatalogRole
	Rank int `json:"rank"`
}

func (h *Handler) listPolicies(w http.ResponseWriter, r *http.Request) {
	entries := h.table.Entries()
	out := make([]policyView, len(entries))
	for i, entry := range entries {
		out[i] = policyView{
			Key:         entry.Key,
			Description: entry.Description,
			Roles:       entry.Roles,
			ClubScoped:  h.table.IsClubScoped(entry.Key),
		}
	}
	httpx.Success(w, http.StatusOK, map[string]any{"policies": out})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleView, len(roles))
	for i, role := range roles {
		out[i] = roleView{CatalogRole: role, Rank: Rank(role.Name)}
	}
	httpx.Success(w, http.StatusOK, map[string]any{"roles": out})
}

type rolePayload struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"max=255"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), payload.Name, payload.Description)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, roleView{CatalogRole: role, Rank: Rank(role.Name)})
}

func (h *Handler) renameRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_role_id", "invalid role id")
		return
	}
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	role, err := h.service.RenameRole(r.Context(), id, payload.Name, payload.Description)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, roleView{CatalogRole: role, Rank: Rank(role.Name)})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_role_id", "invalid role id")
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil)
}

type assignPayload struct {
	UserID     int64  `json:"user_id" validate:"required,min=1"`
	ClubID     *int64 `json:"club_id"`
	Role       string `json:"role" validate:"required"`
	Generation int    `json:"generation" validate:"min=0"`
	OtherInfo  string `json:"other_info" validate:"max=255"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var payload assignPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	result, err := h.service.AssignRole(r.Context(), AssignInput{
		UserID:     payload.UserID,
		ClubID:     payload.ClubID,
		Role:       Role(payload.Role),
		Generation: payload.Generation,
		OtherInfo:  payload.OtherInfo,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, result)
}

func (h *Handler) assignClubRole(w http.ResponseWriter, r *http.Request) {
	clubID, err := strconv.ParseInt(chi.URLParam(r, "clubID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "invalid club id parameter")
		return
	}
	var payload assignPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	result, err := h.service.AssignClubRole(r.Context(), AssignInput{
		UserID:     payload.UserID,
		ClubID:     &clubID,
		Role:       Role(payload.Role),
		Generation: payload.Generation,
		OtherInfo:  payload.OtherInfo,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, result)
}

func (h *Handler) listClubMembers(w http.ResponseWriter, r *http.Request) {
	clubID, err := strconv.ParseInt(chi.URLParam(r, "clubID"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_club_id", "invalid club id parameter")
		return
	}
	members, err := h.service.ClubMembers(r.Context(), clubID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"members": members})
}

type revokePayload struct {
	UserID int64  `json:"user_id" validate:"required,min=1"`
	ClubID *int64 `json:"club_id"`
}

func (h *Handler) revokeMembership(w http.ResponseWriter, r *http.Request) {
	var payload revokePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := h.service.RevokeMembership(r.Context(), payload.UserID, payload.ClubID); err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRoleUnknown), errors.Is(err, ErrRoleNotAllowed), errors.Is(err, ErrRoleScopeMismatch):
		httpx.Error(w, http.StatusBadRequest, "invalid_role", err.Error())
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrClubNotFound), errors.Is(err, ErrRoleNotFound), errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrRoleExists):
		httpx.Error(w, http.StatusConflict, "duplicate", err.Error())
	default:
		h.logger.Error("rbac handler", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
