// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrUnknownRole       = errors.New("unknown role")
	ErrUnknownPermission = errors.New("unknown permission")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate entry")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// RespondError maps domain errors to HTTP responses. Bodies always carry a
// human-readable message and never internal identifiers.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthenticated", "Missing or invalid credentials.")
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "You do not have permission to perform this action.")
	case errors.Is(err, ErrUnknownRole):
		Problem(w, http.StatusBadRequest, "Unknown Role", "Unknown role.")
	case errors.Is(err, ErrUnknownPermission):
		Problem(w, http.StatusBadRequest, "Unknown Permission", "Unknown permission.")
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "Invalid payload.")
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "Resource not found.")
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", "Duplicate entry.")
	case errors.Is(err, ErrStoreUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "The data store is temporarily unavailable.")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
