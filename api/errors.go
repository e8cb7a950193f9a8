package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a login
	// with 401. User-correctable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailAlreadyRegistered is returned when the backend rejects a
	// registration because the email is taken. User-correctable.
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// ErrUnauthorized is the raw 401 from a bearer-authenticated call. The
	// authenticated client translates it into a refresh-and-retry cycle;
	// callers normally see session.ErrSessionExpired instead.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServerUnavailable covers 5xx responses. Retryable by user action
	// only; the client never auto-retries beyond the single refresh retry.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrNetwork covers connectivity failures and timeouts. Handled the same
	// as ErrServerUnavailable.
	ErrNetwork = errors.New("network error")

	// ErrInvalidChildSelection is returned when the selected child does not
	// belong to the user. User-correctable.
	ErrInvalidChildSelection = errors.New("invalid child selection")
)

// ValidationError carries field-level registration problems, either detected
// client-side before the request is sent or reported by the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
