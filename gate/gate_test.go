package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/jrsteele09/go-session-client/credentials/storefakes"
	"github.com/jrsteele09/go-session-client/entitlement"
	entitlementfakes "github.com/jrsteele09/go-session-client/entitlement/backendfakes"
	"github.com/jrsteele09/go-session-client/gate"
	"github.com/jrsteele09/go-session-client/session"
	sessionfakes "github.com/jrsteele09/go-session-client/session/backendfakes"
)

type testFixture struct {
	sessionBackend     *sessionfakes.FakeBackend
	entitlementBackend *entitlementfakes.FakeBackend
	store              *storefakes.FakeStore
	sessionController  *session.Controller
	entitlementCtrl    *entitlement.Controller
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	sessionBackend := sessionfakes.NewFakeBackend()
	entitlementBackend := entitlementfakes.NewFakeBackend()
	store := storefakes.NewFakeStore()

	sessionController, err := session.NewController(sessionBackend, store)
	require.NoError(t, err)
	entitlementCtrl, err := entitlement.NewController(entitlementBackend)
	require.NoError(t, err)

	return &testFixture{
		sessionBackend:     sessionBackend,
		entitlementBackend: entitlementBackend,
		store:              store,
		sessionController:  sessionController,
		entitlementCtrl:    entitlementCtrl,
	}
}

func (f *testFixture) storeTokens(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Save(&credentials.Record{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))
}

func TestNotReadyBeforeEitherResolves(t *testing.T) {
	f := setupTestFixture(t)
	require.False(t, gate.Ready(f.sessionController, f.entitlementCtrl))
}

func TestWaitReadyBlocksUntilBothResolve(t *testing.T) {
	f := setupTestFixture(t)
	f.storeTokens(t)

	// Premium with an expired trial: deciding from a zero-value snapshot
	// would wrongly deny history access here.
	f.entitlementBackend.SetStatus(api.MonetizationStatus{
		IsPremium:     true,
		TrialDaysLeft: 0,
	})

	type waitResult struct {
		view *gate.View
		err  error
	}
	resultCh := make(chan waitResult, 1)
	go func() {
		view, err := gate.WaitReady(context.Background(), f.sessionController, f.entitlementCtrl)
		resultCh <- waitResult{view, err}
	}()

	select {
	case <-resultCh:
		t.Fatal("WaitReady returned before controllers resolved")
	case <-time.After(50 * time.Millisecond):
	}

	require.Equal(t, session.StatusAuthenticated, f.sessionController.Bootstrap(context.Background()))

	select {
	case <-resultCh:
		t.Fatal("WaitReady returned before entitlement loaded")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, f.entitlementCtrl.Refresh(context.Background()))

	select {
	case result := <-resultCh:
		require.NoError(t, result.err)
		require.Equal(t, session.StatusAuthenticated, result.view.Session.Status)
		require.True(t, result.view.Entitlement.HasHistoryAccess())
	case <-time.After(time.Second):
		t.Fatal("WaitReady did not return after both resolved")
	}

	require.True(t, gate.Ready(f.sessionController, f.entitlementCtrl))
}

func TestWaitReadyTimesOutWhileEntitlementLoading(t *testing.T) {
	f := setupTestFixture(t)
	f.storeTokens(t)
	require.Equal(t, session.StatusAuthenticated, f.sessionController.Bootstrap(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	view, err := gate.WaitReady(ctx, f.sessionController, f.entitlementCtrl)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Nil(t, view)
}

func TestWaitReadyShortCircuitsWhenUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, session.StatusUnauthenticated, f.sessionController.Bootstrap(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	view, err := gate.WaitReady(ctx, f.sessionController, f.entitlementCtrl)

	require.NoError(t, err)
	require.Equal(t, session.StatusUnauthenticated, view.Session.Status)
	// Entitlement never loaded; the only permitted decision is login.
	require.True(t, view.Entitlement.Loading)
}
