package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// MonetizationClient talks to the bearer-authenticated monetization and
// children endpoints. The transport it is given is expected to attach the
// access token and handle the 401 refresh-and-retry protocol; this client
// never sees tokens.
type MonetizationClient struct {
	baseURL string
	doer    Doer
}

// NewMonetizationClient creates a client for the monetization endpoints
// under baseURL, sending requests through doer.
func NewMonetizationClient(baseURL string, doer Doer) *MonetizationClient {
	return &MonetizationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
	}
}

// Status fetches the current gating snapshot.
func (c *MonetizationClient) Status(ctx context.Context) (*MonetizationStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/monetization/status", nil)
	if err != nil {
		return nil, fmt.Errorf("[Status] create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Status] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[Status] %w", statusError(resp))
	}

	var status MonetizationStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, fmt.Errorf("[Status] %w", err)
	}
	return &status, nil
}

// SelectActiveChild persists the post-trial active-child choice.
// Returns ErrInvalidChildSelection when the child does not belong to the user.
func (c *MonetizationClient) SelectActiveChild(ctx context.Context, childID string) error {
	payload := map[string]string{"child_id": childID}
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/monetization/select-active-child", payload)
	if err != nil {
		return fmt.Errorf("[SelectActiveChild] %w", err)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("[SelectActiveChild] %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidChildSelection, errorDetail(resp))
	default:
		return fmt.Errorf("[SelectActiveChild] %w", statusError(resp))
	}
}

// Subscribe acknowledges a completed purchase server-side. How payment was
// collected is not this client's concern; transactionID identifies the
// purchase with the payment provider.
func (c *MonetizationClient) Subscribe(ctx context.Context, tier SubscriptionType, transactionID string) error {
	payload := map[string]string{
		"subscription_type": string(tier),
		"transaction_id":    transactionID,
	}
	req, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/monetization/subscribe", payload)
	if err != nil {
		return fmt.Errorf("[Subscribe] %w", err)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("[Subscribe] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("[Subscribe] %w", statusError(resp))
	}
	return nil
}

// Children lists the user's child profiles. Used by UI code driving the
// post-trial selection screen; the gating decision itself only consumes the
// backend's flag.
func (c *MonetizationClient) Children(ctx context.Context) ([]Child, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/children", nil)
	if err != nil {
		return nil, fmt.Errorf("[Children] create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Children] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[Children] %w", statusError(resp))
	}

	var children []Child
	if err := decodeJSON(resp, &children); err != nil {
		return nil, fmt.Errorf("[Children] %w", err)
	}
	return children, nil
}

// TrackPopupShown records a popup impression. Fire and forget from the
// caller's perspective; the error is returned only so it can be logged.
func (c *MonetizationClient) TrackPopupShown(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/monetization/popup-shown", nil)
	if err != nil {
		return fmt.Errorf("[TrackPopupShown] create request: %w", err)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("[TrackPopupShown] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("[TrackPopupShown] %w", statusError(resp))
	}
	return nil
}
