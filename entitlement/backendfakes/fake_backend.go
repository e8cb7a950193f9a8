package backendfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/entitlement"
)

var _ entitlement.Backend = (*FakeBackend)(nil)

// FakeBackend is a hand-written fake of entitlement.Backend. Operations can
// be overridden with func hooks; unset hooks succeed against the in-memory
// state, which behaves like the real backend: selecting an active child
// clears the post-trial flag, subscribing flips premium.
type FakeBackend struct {
	lock sync.Mutex

	StatusFn            func(ctx context.Context) (*api.MonetizationStatus, error)
	SelectActiveChildFn func(ctx context.Context, childID string) error
	SubscribeFn         func(ctx context.Context, tier api.SubscriptionType, transactionID string) error

	CurrentStatus api.MonetizationStatus
	ChildList     []api.Child

	statusCalls int
	popupCalls  int
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		CurrentStatus: api.MonetizationStatus{
			IsPremium:     false,
			TrialDaysLeft: 30,
		},
	}
}

func (f *FakeBackend) Status(ctx context.Context) (*api.MonetizationStatus, error) {
	f.lock.Lock()
	f.statusCalls++
	f.lock.Unlock()

	if f.StatusFn != nil {
		return f.StatusFn(ctx)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	status := f.CurrentStatus
	return &status, nil
}

func (f *FakeBackend) SelectActiveChild(ctx context.Context, childID string) error {
	if f.SelectActiveChildFn != nil {
		return f.SelectActiveChildFn(ctx, childID)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	for _, child := range f.ChildList {
		if child.ID == childID {
			f.CurrentStatus.ActiveChildID = childID
			f.CurrentStatus.PostTrialSetupRequired = false
			return nil
		}
	}
	return api.ErrInvalidChildSelection
}

func (f *FakeBackend) Subscribe(ctx context.Context, tier api.SubscriptionType, transactionID string) error {
	if f.SubscribeFn != nil {
		return f.SubscribeFn(ctx, tier, transactionID)
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.CurrentStatus.IsPremium = true
	f.CurrentStatus.SubscriptionType = string(tier)
	f.CurrentStatus.ActiveChildID = ""
	f.CurrentStatus.PostTrialSetupRequired = false
	return nil
}

func (f *FakeBackend) Children(ctx context.Context) ([]api.Child, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]api.Child(nil), f.ChildList...), nil
}

func (f *FakeBackend) TrackPopupShown(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.popupCalls++
	return nil
}

// SetStatus replaces the canned status under the lock.
func (f *FakeBackend) SetStatus(status api.MonetizationStatus) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.CurrentStatus = status
}

func (f *FakeBackend) StatusCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.statusCalls
}

func (f *FakeBackend) PopupCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.popupCalls
}
