// Package httpclient decorates an HTTP client with bearer-token attachment
// and the single-retry-after-refresh protocol: a 401 triggers one token
// refresh (serialized by the session controller) and one re-issue of the
// original request with the new token. A second 401, or a failed refresh,
// surfaces as the session-expired error from the refresh itself.
package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/session"
)

// TokenSource provides the current access token and the refresh routine.
// session.Controller is the only production implementation; its refresh is
// single-flight, so concurrent 401s here collapse into one refresh call.
type TokenSource interface {
	AccessToken() string
	RefreshAccessToken(ctx context.Context) (string, error)
}

var _ TokenSource = (*session.Controller)(nil)

// Client is an api.Doer that authenticates every outbound request.
type Client struct {
	base   *http.Client
	tokens TokenSource
}

var _ api.Doer = (*Client)(nil)

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithBaseClient overrides the underlying HTTP client.
func WithBaseClient(base *http.Client) ClientOption {
	return func(c *Client) {
		c.base = base
	}
}

// New creates an authenticated client over tokens.
func New(tokens TokenSource, options ...ClientOption) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("[httpclient.New] token source is required")
	}
	client := &Client{
		base:   &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Do sends the request with the current access token attached. The token is
// read fresh per attempt, never captured earlier, so a refresh completed by
// another request is picked up automatically. On a 401 the request is
// retried exactly once after a refresh.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	requestID := uuid.New().String()

	resp, err := c.send(req, requestID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Unauthorized once: refresh and retry, unless the body cannot be
	// replayed, in which case the 401 stands.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	resp.Body.Close()

	log.Debug().Str("request_id", requestID).Str("url", req.URL.Path).
		Msg("httpclient: 401 received, refreshing access token")

	if _, err := c.tokens.RefreshAccessToken(req.Context()); err != nil {
		return nil, errors.Wrap(err, "[Do] token refresh after 401")
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Do] preparing retry")
	}
	return c.send(retry, requestID)
}

// send attaches the bearer token and performs one attempt.
func (c *Client) send(req *http.Request, requestID string) (*http.Response, error) {
	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, errors.Wrapf(api.ErrNetwork, "[send] %v", err)
	}
	return resp, nil
}

// cloneRequest rebuilds the request with a fresh body for the retry.
func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}
