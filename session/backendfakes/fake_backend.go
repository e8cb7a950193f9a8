package backendfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/session"
)

var _ session.Backend = (*FakeBackend)(nil)

// FakeBackend is a hand-written fake of session.Backend. Each operation can
// be overridden with a func hook; unset hooks succeed with the configured
// canned values. Call counters are safe for concurrent use so tests can
// assert on how many refreshes actually hit the "backend".
type FakeBackend struct {
	lock sync.Mutex

	LoginFn    func(ctx context.Context, email, password string) (*api.TokenGrant, error)
	RegisterFn func(ctx context.Context, reg api.Registration) (*api.TokenGrant, error)
	MeFn       func(ctx context.Context, accessToken string) (*api.User, error)
	RefreshFn  func(ctx context.Context, refreshToken string) (*api.RefreshGrant, error)
	LogoutFn   func(ctx context.Context, accessToken string) error

	// Canned results used when the corresponding hook is nil.
	Grant *api.TokenGrant
	User  *api.User

	loginCalls    int
	registerCalls int
	meCalls       int
	refreshCalls  int
	logoutCalls   int
}

// NewFakeBackend returns a fake pre-loaded with a plausible grant and user.
func NewFakeBackend() *FakeBackend {
	user := api.User{
		ID:        "user-1",
		Email:     "parent@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	}
	return &FakeBackend{
		Grant: &api.TokenGrant{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "bearer",
			User:         user,
		},
		User: &user,
	}
}

func (f *FakeBackend) Login(ctx context.Context, email, password string) (*api.TokenGrant, error) {
	f.count(&f.loginCalls)
	if f.LoginFn != nil {
		return f.LoginFn(ctx, email, password)
	}
	return f.Grant, nil
}

func (f *FakeBackend) Register(ctx context.Context, reg api.Registration) (*api.TokenGrant, error) {
	f.count(&f.registerCalls)
	if f.RegisterFn != nil {
		return f.RegisterFn(ctx, reg)
	}
	return f.Grant, nil
}

func (f *FakeBackend) Me(ctx context.Context, accessToken string) (*api.User, error) {
	f.count(&f.meCalls)
	if f.MeFn != nil {
		return f.MeFn(ctx, accessToken)
	}
	return f.User, nil
}

func (f *FakeBackend) Refresh(ctx context.Context, refreshToken string) (*api.RefreshGrant, error) {
	f.count(&f.refreshCalls)
	if f.RefreshFn != nil {
		return f.RefreshFn(ctx, refreshToken)
	}
	return &api.RefreshGrant{AccessToken: "access-refreshed", TokenType: "bearer"}, nil
}

func (f *FakeBackend) Logout(ctx context.Context, accessToken string) error {
	f.count(&f.logoutCalls)
	if f.LogoutFn != nil {
		return f.LogoutFn(ctx, accessToken)
	}
	return nil
}

func (f *FakeBackend) LoginCalls() int    { return f.read(&f.loginCalls) }
func (f *FakeBackend) RegisterCalls() int { return f.read(&f.registerCalls) }
func (f *FakeBackend) MeCalls() int       { return f.read(&f.meCalls) }
func (f *FakeBackend) RefreshCalls() int  { return f.read(&f.refreshCalls) }
func (f *FakeBackend) LogoutCalls() int   { return f.read(&f.logoutCalls) }

func (f *FakeBackend) count(counter *int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	*counter++
}

func (f *FakeBackend) read(counter *int) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return *counter
}
