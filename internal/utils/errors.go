package utils

import (
	"errors"
	"net/http"

	"github.com/aristath/horizon/internal/domain"
)

// StatusForError maps a domain error to the HTTP status reported to clients
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrInvalidPanel),
		errors.Is(err, domain.ErrMisalignedHorizon):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
