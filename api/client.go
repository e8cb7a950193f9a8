// Package api implements the HTTP client for the backend the session and
// entitlement controllers talk to. All endpoints live under a single injected
// base URL; the package maps HTTP failures onto the typed errors in errors.go
// and leaves retry/refresh policy entirely to the callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Doer abstracts the HTTP transport so bearer-authenticated clients can be
// built over the refresh-and-retry wrapper in the httpclient package.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// decodeJSON decodes a 2xx response body into out.
func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts the backend's error message, falling back to the raw
// body when it is not the usual envelope.
func errorDetail(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return string(bytes.TrimSpace(raw))
}

// statusError maps non-2xx responses onto the error taxonomy. Endpoint
// specific cases (bad credentials, duplicate email) are handled by the
// callers before falling through to here.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errorDetail(resp))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s - %s", ErrServerUnavailable, resp.Status, errorDetail(resp))
	default:
		return fmt.Errorf("unexpected status %s: %s", resp.Status, errorDetail(resp))
	}
}

// newJSONRequest builds a request with a JSON body and the standard headers.
func newJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}
