package entitlement

import (
	"context"

	"github.com/jrsteele09/go-session-client/api"
)

// Backend defines the monetization endpoints the controller needs.
// Implemented by api.MonetizationClient over the authenticated HTTP client;
// faked in backendfakes for tests.
type Backend interface {
	// Status fetches the gating snapshot
	Status(ctx context.Context) (*api.MonetizationStatus, error)

	// SelectActiveChild persists the post-trial active-child choice
	SelectActiveChild(ctx context.Context, childID string) error

	// Subscribe acknowledges a completed purchase server-side
	Subscribe(ctx context.Context, tier api.SubscriptionType, transactionID string) error

	// Children lists the user's child profiles
	Children(ctx context.Context) ([]api.Child, error)

	// TrackPopupShown records a popup impression
	TrackPopupShown(ctx context.Context) error
}

var _ Backend = (*api.MonetizationClient)(nil)
