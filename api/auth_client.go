package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AuthClient talks to the unauthenticated and token-bearing auth endpoints.
// It deliberately does not go through the refresh-and-retry wrapper: login
// and register carry no token, and Me/Refresh are the calls the wrapper
// itself is built from.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

// AuthClientOption modifies an AuthClient.
type AuthClientOption func(*AuthClient)

// WithHTTPClient overrides the underlying HTTP client (primarily for tests
// and for callers that need custom transport settings).
func WithHTTPClient(hc *http.Client) AuthClientOption {
	return func(c *AuthClient) {
		c.httpClient = hc
	}
}

// NewAuthClient creates a client for the auth endpoints under baseURL.
func NewAuthClient(baseURL string, options ...AuthClientOption) *AuthClient {
	client := &AuthClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// Login exchanges credentials for a token grant.
// Returns ErrInvalidCredentials on 401, ErrServerUnavailable on 5xx and
// ErrNetwork on connectivity failure.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*TokenGrant, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/auth/token", payload)
	if err != nil {
		return nil, fmt.Errorf("[Login] %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Login] %w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var grant TokenGrant
		if err := decodeJSON(resp, &grant); err != nil {
			return nil, fmt.Errorf("[Login] %w", err)
		}
		return &grant, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, errorDetail(resp))
	default:
		return nil, fmt.Errorf("[Login] %w", statusError(resp))
	}
}

// Register creates a new account and returns its first token grant.
// Returns ErrEmailAlreadyRegistered on a duplicate email and *ValidationError
// when the backend rejects individual fields.
func (c *AuthClient) Register(ctx context.Context, reg Registration) (*TokenGrant, error) {
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/auth/register", reg)
	if err != nil {
		return nil, fmt.Errorf("[Register] %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Register] %w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var grant TokenGrant
		if err := decodeJSON(resp, &grant); err != nil {
			return nil, fmt.Errorf("[Register] %w", err)
		}
		return &grant, nil
	case resp.StatusCode == http.StatusBadRequest:
		detail := errorDetail(resp)
		if strings.Contains(strings.ToLower(detail), "already registered") {
			return nil, fmt.Errorf("%w: %s", ErrEmailAlreadyRegistered, detail)
		}
		return nil, &ValidationError{Fields: map[string]string{"request": detail}}
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, &ValidationError{Fields: map[string]string{"request": errorDetail(resp)}}
	default:
		return nil, fmt.Errorf("[Register] %w", statusError(resp))
	}
}

// Me validates an access token and returns the user it belongs to.
// Returns ErrUnauthorized when the token is invalid or expired.
func (c *AuthClient) Me(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("[Me] create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Me] %w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[Me] %w", statusError(resp))
	}

	var user User
	if err := decodeJSON(resp, &user); err != nil {
		return nil, fmt.Errorf("[Me] %w", err)
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a new access token.
// Returns ErrUnauthorized when the refresh token is invalid or expired.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*RefreshGrant, error) {
	endpoint := c.baseURL + "/auth/refresh?refresh_token=" + url.QueryEscape(refreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Refresh] %w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[Refresh] %w", statusError(resp))
	}

	var grant RefreshGrant
	if err := decodeJSON(resp, &grant); err != nil {
		return nil, fmt.Errorf("[Refresh] %w", err)
	}
	return &grant, nil
}

// Logout asks the backend to invalidate the token server-side. Best effort:
// callers must complete their local logout regardless of the outcome, so the
// call carries its own short timeout.
func (c *AuthClient) Logout(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("[Logout] create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[Logout] %w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("[Logout] %w", statusError(resp))
	}
	return nil
}
