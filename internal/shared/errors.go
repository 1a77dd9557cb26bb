package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Request taxonomy. Handlers map these to HTTP statuses via StatusCode;
	// everything unrecognized is a 500.
	ErrValidation = fmt.Errorf("validation failed")
	ErrConflict   = fmt.Errorf("conflict")
	ErrNotFound   = fmt.Errorf("not found")
	ErrStorage    = fmt.Errorf("storage failure")

	// Degraded-collaborator signals, returned by the inference and
	// catalog services. Callers absorb them and fall back (neutral
	// sentiment, unenriched catalog entity); they never reach a client.
	ErrClassifierDegraded = fmt.Errorf("classifier degraded")
	ErrCatalogDegraded    = fmt.Errorf("catalog lookup degraded")
)

// StatusCode maps the error taxonomy to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrAuthFailed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
