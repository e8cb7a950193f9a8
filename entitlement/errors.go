package entitlement

import "errors"

var (
	// ErrFetchFailed wraps a failed status fetch. Soft: the previous
	// snapshot is retained and no access state changes.
	ErrFetchFailed = errors.New("entitlement fetch failed")

	// ErrSelectionNotRequired is returned when SelectActiveChild is called
	// outside the forced post-trial selection.
	ErrSelectionNotRequired = errors.New("active child selection not required")
)
