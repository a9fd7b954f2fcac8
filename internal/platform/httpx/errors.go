package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors onto the response envelope.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Error(w, http.StatusConflict, "duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Error(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Error(w, http.StatusForbidden, "insufficient_role", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "login_required", err.Error())
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
