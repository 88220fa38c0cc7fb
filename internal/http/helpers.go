package http

import (
	"errors"
	"net/http"
	"strings"

	"tally/internal/core"
	"tally/internal/fetch"
	"tally/internal/profiles"
	"tally/internal/services"
)

// maxBodyBytes bounds import and definition request bodies.
const maxBodyBytes = 32 << 20

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func profileID(r *http.Request) string {
	return sanitizeInput(r.PathValue("id"))
}

// errBadRequest marks request parsing failures.
var errBadRequest = errors.New("bad request")

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound),
		errors.Is(err, core.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrEmptyProfileID),
		errors.Is(err, fetch.ErrUnsupportedSource),
		errors.Is(err, fetch.ErrSourceNotAllowed),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidDateBound),
		errors.Is(err, core.ErrDateBoundsOrder):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDefinitionExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoFetcher):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
