package session

import "errors"

var (
	// ErrSessionExpired means a token refresh failed or was denied. The
	// controller has already flipped to Unauthenticated and cleared storage
	// by the time callers see it; the UI should prompt for a fresh login
	// rather than show a generic error.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken means storage held no refresh token when a refresh
	// was attempted. Callers should treat it as ErrSessionExpired; the
	// controller wraps it so errors.Is matches both.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrNotAuthenticated is returned by operations that require an
	// authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
)
