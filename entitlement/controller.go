// Package entitlement owns the monetization state used for gating: premium
// flag, trial days left, monthly question count and the post-trial
// active-child pointer. The snapshot is never persisted locally; the backend
// is the source of truth and the controller only caches its latest response.
package entitlement

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
)

// Snapshot is the point-in-time gating state. The gating decisions are pure
// functions of a snapshot so screens can evaluate them without holding the
// controller's lock.
type Snapshot struct {
	IsPremium          bool
	TrialDaysLeft      int
	QuestionsThisMonth int
	ActiveChildID      string
	SubscriptionType   string

	// PostTrialSelectionRequired mirrors the backend's flag: trial over,
	// not premium, no active child chosen yet.
	PostTrialSelectionRequired bool

	// Loading is true until the first successful fetch. Decisions must not
	// be read from a loading snapshot; gate.WaitReady enforces that.
	Loading bool
}

// HasHistoryAccess reports whether the history screen is available:
// premium, or still inside the trial.
func (s Snapshot) HasHistoryAccess() bool {
	return s.IsPremium || s.TrialDaysLeft > 0
}

// CanAskQuestion reports whether childID may receive an answer right now.
// Premium and in-trial users are unrestricted; after the trial, only the
// active child may ask, and only while the monthly counter is below the
// free-tier quota of one.
func (s Snapshot) CanAskQuestion(childID string) bool {
	if s.IsPremium || s.TrialDaysLeft > 0 {
		return true
	}
	if s.ActiveChildID == "" || childID != s.ActiveChildID {
		return false
	}
	return s.QuestionsThisMonth < 1
}

// Controller fetches and caches the monetization snapshot.
type Controller struct {
	backend Backend

	mu         sync.RWMutex
	snapshot   Snapshot
	nextSeq    uint64
	appliedSeq uint64

	loaded     chan struct{}
	loadedOnce sync.Once
}

// NewController creates an entitlement controller in the loading state.
func NewController(backend Backend) (*Controller, error) {
	if backend == nil {
		return nil, errors.New("[entitlement.NewController] backend is required")
	}
	return &Controller{
		backend:  backend,
		snapshot: Snapshot{Loading: true},
		loaded:   make(chan struct{}),
	}, nil
}

// Snapshot returns the current gating state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Loading reports whether the first successful fetch is still outstanding.
func (c *Controller) Loading() bool {
	return c.Snapshot().Loading
}

// Loaded is closed once the first successful fetch completes. Screens gate
// on it together with the session controller's Bootstrapped channel.
func (c *Controller) Loaded() <-chan struct{} {
	return c.loaded
}

// HasHistoryAccess evaluates the current snapshot. Only meaningful once
// Loaded has fired; see gate.WaitReady.
func (c *Controller) HasHistoryAccess() bool {
	return c.Snapshot().HasHistoryAccess()
}

// CanAskQuestion evaluates the current snapshot for childID. Only meaningful
// once Loaded has fired; see gate.WaitReady.
func (c *Controller) CanAskQuestion(childID string) bool {
	return c.Snapshot().CanAskQuestion(childID)
}

// Refresh fetches the snapshot from the backend. Fails soft: on error the
// previous snapshot is retained, nothing is granted or revoked, and the
// failure is logged and returned wrapped in ErrFetchFailed for callers that
// want it. Concurrent refreshes are not serialized, but the freshest request
// wins: a slow response from an earlier request never overwrites the
// snapshot a later request already applied.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	status, err := c.backend.Status(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("entitlement: status fetch failed, keeping previous snapshot")
		return errors.Wrapf(ErrFetchFailed, "[Refresh] %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.appliedSeq {
		log.Debug().Uint64("seq", seq).Uint64("applied", c.appliedSeq).
			Msg("entitlement: discarding stale status response")
		return nil
	}
	c.appliedSeq = seq
	c.snapshot = Snapshot{
		IsPremium:                  status.IsPremium,
		TrialDaysLeft:              status.TrialDaysLeft,
		QuestionsThisMonth:         status.QuestionsThisMonth,
		ActiveChildID:              status.ActiveChildID,
		SubscriptionType:           status.SubscriptionType,
		PostTrialSelectionRequired: status.PostTrialSetupRequired,
		Loading:                    false,
	}
	c.loadedOnce.Do(func() { close(c.loaded) })
	return nil
}

// SelectActiveChild persists the forced post-trial choice of the single
// child that stays active on the free tier, then refetches the snapshot.
// Valid only while the backend reports the selection as required.
func (c *Controller) SelectActiveChild(ctx context.Context, childID string) error {
	snap := c.Snapshot()
	if snap.Loading || !snap.PostTrialSelectionRequired {
		return ErrSelectionNotRequired
	}

	if err := c.backend.SelectActiveChild(ctx, childID); err != nil {
		return errors.Wrap(err, "[SelectActiveChild]")
	}
	log.Info().Str("child_id", childID).Msg("entitlement: active child selected")
	return c.Refresh(ctx)
}

// RecordPurchase acknowledges a completed purchase server-side and refetches
// the snapshot. How payment was collected is the caller's concern; local
// entitlement flips to premium only after the backend confirms.
func (c *Controller) RecordPurchase(ctx context.Context, tier api.SubscriptionType, transactionID string) error {
	if err := c.backend.Subscribe(ctx, tier, transactionID); err != nil {
		return errors.Wrap(err, "[RecordPurchase]")
	}
	log.Info().Str("tier", string(tier)).Msg("entitlement: purchase recorded")
	return c.Refresh(ctx)
}

// NoteQuestionAsked bumps the local monthly counter after a successful ask,
// so free-tier gating flips immediately. An optimistic hint only; the next
// Refresh replaces it with the backend's count.
func (c *Controller) NoteQuestionAsked() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.QuestionsThisMonth++
}

// Children lists the user's child profiles for the selection screen.
func (c *Controller) Children(ctx context.Context) ([]api.Child, error) {
	children, err := c.backend.Children(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Children]")
	}
	return children, nil
}

// TrackPopupShown records a popup impression. Fire and forget; failures are
// only logged.
func (c *Controller) TrackPopupShown(ctx context.Context) {
	if err := c.backend.TrackPopupShown(ctx); err != nil {
		log.Debug().Err(err).Msg("entitlement: popup tracking failed")
	}
}
