// Package credentials defines durable storage for the session's token pair.
// The session controller is the only writer; everything else reads tokens
// indirectly through the authenticated HTTP client.
package credentials

import "errors"

// ErrNotFound is returned by Load when no credential record is stored.
var ErrNotFound = errors.New("credentials not found")

// Record is the persisted form of the session's tokens. Both values are
// opaque strings issued by the backend.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists the credential record across process restarts.
//
// Save and Clear must be atomic with respect to the pair: a reader never
// observes an access token without its refresh token or vice versa. Save is
// only called after a fully successful backend response, which is what keeps
// failed logins from leaving partial writes behind.
type Store interface {
	// Load returns the stored record, or ErrNotFound when none exists.
	Load() (*Record, error)

	// Save writes the record, replacing any previous one.
	Save(record *Record) error

	// Clear removes the record. Clearing an empty store is not an error.
	Clear() error
}
