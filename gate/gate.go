// Package gate implements the screen-readiness check: no screen may
// evaluate access until the session has left Bootstrapping and the
// entitlement snapshot has finished its first successful fetch. Deciding
// against a half-loaded snapshot (zero values read as "free tier, trial
// over") is exactly the false-redirect bug this exists to prevent; callers
// show a spinner while WaitReady blocks, never a redirect.
package gate

import (
	"context"

	"github.com/jrsteele09/go-session-client/entitlement"
	"github.com/jrsteele09/go-session-client/session"
)

// View is the pair of resolved snapshots a screen decides from.
type View struct {
	Session     session.Snapshot
	Entitlement entitlement.Snapshot
}

// WaitReady blocks until both controllers have resolved, then returns their
// snapshots. Returns the context error on timeout or cancellation, in which
// case no decision is available and the caller must keep rendering its
// loading state.
func WaitReady(ctx context.Context, sc *session.Controller, ec *entitlement.Controller) (*View, error) {
	select {
	case <-sc.Bootstrapped():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Without a session there is nothing to fetch entitlement with; the
	// caller's only decision is to send the user to login, which is safe.
	if sc.Status() == session.StatusUnauthenticated {
		return &View{
			Session:     sc.Snapshot(),
			Entitlement: ec.Snapshot(),
		}, nil
	}

	select {
	case <-ec.Loaded():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &View{
		Session:     sc.Snapshot(),
		Entitlement: ec.Snapshot(),
	}, nil
}

// Ready reports whether both controllers have resolved, without blocking.
func Ready(sc *session.Controller, ec *entitlement.Controller) bool {
	return sc.Status() != session.StatusBootstrapping && !ec.Loading()
}
