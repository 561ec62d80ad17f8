package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s returned %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api: %s returned %d: %s", e.Path, e.StatusCode, e.Message)
}

// IsAuthFailure reports whether err is an authorization rejection (401/403)
// rather than a transient or validation failure.
func IsAuthFailure(err error) bool {
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	default:
		return false
	}
}

// StatusCode extracts the HTTP status from err, or 0 when err did not come
// from a backend response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
