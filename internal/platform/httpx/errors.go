package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// Sentinel errors for the domain layer. Services wrap these with
// fmt.Errorf("%w: ...") so handlers can map them without inspecting text.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to failure envelopes. Unknown errors are
// logged with their full chain and surfaced as a generic 500 with no
// internal detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Fail(w, http.StatusConflict, "duplicate entry", err.Error())
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, "validation failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		slog.Error("unhandled request error", "error", err)
		Fail(w, http.StatusInternalServerError, "internal error", "")
	}
}
