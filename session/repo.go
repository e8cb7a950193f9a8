package session

import (
	"context"

	"github.com/jrsteele09/go-session-client/api"
)

// Backend defines the auth endpoints the controller needs. Implemented by
// api.AuthClient; faked in backendfakes for tests.
type Backend interface {
	// Login exchanges credentials for a token grant
	Login(ctx context.Context, email, password string) (*api.TokenGrant, error)

	// Register creates an account and returns its first token grant
	Register(ctx context.Context, reg api.Registration) (*api.TokenGrant, error)

	// Me validates an access token and returns its user
	Me(ctx context.Context, accessToken string) (*api.User, error)

	// Refresh exchanges the refresh token for a new access token
	Refresh(ctx context.Context, refreshToken string) (*api.RefreshGrant, error)

	// Logout invalidates the token server-side (best effort)
	Logout(ctx context.Context, accessToken string) error
}

var _ Backend = (*api.AuthClient)(nil)
