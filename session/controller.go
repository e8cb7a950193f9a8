// Package session owns the client-side authentication state machine: a
// session is Bootstrapping exactly once at process start and then moves
// between Authenticated and Unauthenticated through login, register, token
// refresh and logout. The controller is the single writer of the credential
// store; everything else reads tokens through it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/credentials"
)

// Status names the states of the session state machine.
type Status string

const (
	// StatusBootstrapping is the initial state, held only while stored
	// credentials are being validated at process start.
	StatusBootstrapping Status = "bootstrapping"

	// StatusAuthenticated means a user record and access token are present.
	StatusAuthenticated Status = "authenticated"

	// StatusUnauthenticated means no valid session exists.
	StatusUnauthenticated Status = "unauthenticated"
)

const (
	defaultBootstrapTimeout = 10 * time.Second
	defaultRefreshTimeout   = 45 * time.Second
)

// refreshFlightKey serializes refreshes: every caller joins the same flight.
const refreshFlightKey = "refresh"

var validate = validator.New()

// Snapshot is a point-in-time view of the session, safe to hand to UI code.
type Snapshot struct {
	Status Status
	User   *api.User
}

// Controller owns the session state machine.
type Controller struct {
	backend Backend
	store   credentials.Store

	bootstrapTimeout time.Duration
	refreshTimeout   time.Duration

	mu           sync.RWMutex
	status       Status
	user         *api.User
	accessToken  string
	refreshToken string

	refreshGroup  singleflight.Group
	bootstrapped  chan struct{}
	bootstrapOnce sync.Once
}

// Option modifies a Controller.
type Option func(*Controller)

// WithBootstrapTimeout bounds credential validation at startup. The watchdog
// forces the Unauthenticated transition at this bound even if the validation
// call hangs.
func WithBootstrapTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.bootstrapTimeout = d
	}
}

// WithRefreshTimeout bounds a single token refresh call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.refreshTimeout = d
	}
}

// NewController initializes a session controller in the Bootstrapping state.
// Callers must invoke Bootstrap exactly once before gating any screen.
func NewController(backend Backend, store credentials.Store, options ...Option) (*Controller, error) {
	if backend == nil {
		return nil, errors.New("[NewController] backend is required")
	}
	if store == nil {
		return nil, errors.New("[NewController] credential store is required")
	}

	controller := &Controller{
		backend:          backend,
		store:            store,
		bootstrapTimeout: defaultBootstrapTimeout,
		refreshTimeout:   defaultRefreshTimeout,
		status:           StatusBootstrapping,
		bootstrapped:     make(chan struct{}),
	}

	for _, opt := range options {
		opt(controller)
	}

	return controller, nil
}

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Snapshot returns the current state and user.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Status: c.status, User: c.user}
}

// AccessToken returns the current access token, or "" when unauthenticated.
// Always a fresh read; callers must not cache the value across requests.
func (c *Controller) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// Bootstrapped is closed once bootstrap has resolved to Authenticated or
// Unauthenticated. Screens gate on it together with the entitlement
// controller's Loaded channel.
func (c *Controller) Bootstrapped() <-chan struct{} {
	return c.bootstrapped
}

type bootstrapResult struct {
	user *api.User
	err  error
}

// Bootstrap restores the session from the credential store. It resolves to
// Authenticated only when both tokens are stored and the backend validates
// the access token (refreshing once if it has expired); every other path,
// including a hung validation call, resolves to Unauthenticated within the
// bootstrap timeout.
func (c *Controller) Bootstrap(ctx context.Context) Status {
	defer c.bootstrapOnce.Do(func() { close(c.bootstrapped) })

	record, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, credentials.ErrNotFound) {
			log.Warn().Err(err).Msg("session: credential store read failed during bootstrap")
		}
		return c.resolveUnauthenticated()
	}
	if record.AccessToken == "" || record.RefreshToken == "" {
		return c.resolveUnauthenticated()
	}

	vctx, cancel := context.WithTimeout(ctx, c.bootstrapTimeout)
	defer cancel()

	resultCh := make(chan bootstrapResult, 1)
	go func() {
		resultCh <- c.validateStored(vctx, record)
	}()

	// Watchdog race: the validation call carries its own deadline, but the
	// transition out of Bootstrapping must not depend on it honouring one.
	watchdog := time.NewTimer(c.bootstrapTimeout)
	defer watchdog.Stop()

	select {
	case result := <-resultCh:
		if result.err != nil {
			if errors.Is(result.err, api.ErrUnauthorized) || errors.Is(result.err, ErrSessionExpired) {
				// Tokens are definitively dead; drop them so the next start
				// skips validation. Transient failures keep them.
				if clearErr := c.store.Clear(); clearErr != nil {
					log.Warn().Err(clearErr).Msg("session: failed clearing rejected credentials")
				}
			}
			log.Info().Err(result.err).Msg("session: bootstrap validation failed")
			return c.resolveUnauthenticated()
		}
		c.setAuthenticated(result.user, record.AccessToken, record.RefreshToken)
		log.Info().Str("user_id", result.user.ID).Msg("session: bootstrap restored session")
		return StatusAuthenticated
	case <-watchdog.C:
		log.Warn().Dur("timeout", c.bootstrapTimeout).Msg("session: bootstrap watchdog fired")
		return c.resolveUnauthenticated()
	case <-ctx.Done():
		return c.resolveUnauthenticated()
	}
}

// validateStored checks the stored access token against the backend,
// refreshing it once if the backend reports it expired. On a successful
// refresh the record is updated in place so the caller keeps the new token.
func (c *Controller) validateStored(ctx context.Context, record *credentials.Record) bootstrapResult {
	user, err := c.backend.Me(ctx, record.AccessToken)
	if err == nil {
		return bootstrapResult{user: user}
	}
	if !errors.Is(err, api.ErrUnauthorized) {
		return bootstrapResult{err: err}
	}

	grant, err := c.backend.Refresh(ctx, record.RefreshToken)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return bootstrapResult{err: errors.Wrap(ErrSessionExpired, "[Bootstrap] refresh rejected")}
		}
		return bootstrapResult{err: err}
	}

	user, err = c.backend.Me(ctx, grant.AccessToken)
	if err != nil {
		return bootstrapResult{err: err}
	}

	record.AccessToken = grant.AccessToken
	if err := c.store.Save(record); err != nil {
		return bootstrapResult{err: errors.Wrap(err, "[Bootstrap] persisting refreshed token")}
	}
	return bootstrapResult{user: user}
}

// Login authenticates with email and password. On success the token pair is
// persisted before the status flips; on any failure the state is
// Unauthenticated and storage is untouched by this call.
func (c *Controller) Login(ctx context.Context, email, password string) (*api.User, error) {
	if email == "" || password == "" {
		return nil, api.ErrInvalidCredentials
	}

	grant, err := c.backend.Login(ctx, email, password)
	if err != nil {
		c.setUnauthenticated()
		return nil, err
	}

	if err := c.persistGrant(grant); err != nil {
		c.setUnauthenticated()
		return nil, errors.Wrap(err, "[Login] persisting tokens")
	}

	c.setAuthenticated(&grant.User, grant.AccessToken, grant.RefreshToken)
	log.Info().Str("user_id", grant.User.ID).Msg("session: login succeeded")
	return &grant.User, nil
}

// Register creates an account and signs it in. Input is validated
// client-side first so field problems surface as api.ValidationError without
// a round trip. Same all-or-nothing persistence contract as Login.
func (c *Controller) Register(ctx context.Context, reg api.Registration) (*api.User, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, validationError(err)
	}

	grant, err := c.backend.Register(ctx, reg)
	if err != nil {
		c.setUnauthenticated()
		return nil, err
	}

	if err := c.persistGrant(grant); err != nil {
		c.setUnauthenticated()
		return nil, errors.Wrap(err, "[Register] persisting tokens")
	}

	c.setAuthenticated(&grant.User, grant.AccessToken, grant.RefreshToken)
	log.Info().Str("user_id", grant.User.ID).Msg("session: registration succeeded")
	return &grant.User, nil
}

// RefreshAccessToken obtains a new access token using the stored refresh
// token. At most one refresh is in flight at a time; concurrent callers join
// the pending one and share its result. Any failure expires the session and
// returns ErrSessionExpired so in-flight requests abort cleanly.
func (c *Controller) RefreshAccessToken(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do(refreshFlightKey, func() (any, error) {
		return c.refreshOnce(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Controller) refreshOnce(ctx context.Context) (string, error) {
	record, err := c.store.Load()
	if err != nil || record.RefreshToken == "" {
		c.expireLocally()
		return "", fmt.Errorf("[RefreshAccessToken] %w: %w", ErrSessionExpired, ErrNoRefreshToken)
	}

	rctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	grant, err := c.backend.Refresh(rctx, record.RefreshToken)
	if err != nil {
		c.expireLocally()
		log.Info().Err(err).Msg("session: token refresh failed, session expired")
		return "", fmt.Errorf("[RefreshAccessToken] %w: %v", ErrSessionExpired, err)
	}

	record.AccessToken = grant.AccessToken
	if err := c.store.Save(record); err != nil {
		// The backend accepted the refresh; keep the session alive in memory
		// and let the next restart re-validate.
		log.Warn().Err(err).Msg("session: failed persisting refreshed access token")
	}

	c.mu.Lock()
	c.accessToken = grant.AccessToken
	c.mu.Unlock()

	log.Debug().Msg("session: access token refreshed")
	return grant.AccessToken, nil
}

// Logout ends the session. Idempotent, and never blocked by the network:
// storage is cleared and the status flipped before the server-side
// invalidation is attempted in the background. Destructive-action
// confirmation is the caller's concern, obtained before invoking this.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.RLock()
	accessToken := c.accessToken
	c.mu.RUnlock()

	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("session: failed clearing credential store on logout")
	}
	c.setUnauthenticated()
	log.Info().Msg("session: logged out")

	if accessToken != "" {
		go func() {
			if err := c.backend.Logout(context.WithoutCancel(ctx), accessToken); err != nil {
				log.Debug().Err(err).Msg("session: server-side token invalidation failed")
			}
		}()
	}
	return nil
}

// persistGrant writes the token pair. Called only with a fully successful
// grant, which is what keeps partial writes out of storage.
func (c *Controller) persistGrant(grant *api.TokenGrant) error {
	return c.store.Save(&credentials.Record{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
	})
}

// expireLocally clears storage and flips to Unauthenticated, storage first
// so there is no window where the status claims Authenticated with no
// stored token.
func (c *Controller) expireLocally() {
	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("session: failed clearing credential store on expiry")
	}
	c.setUnauthenticated()
}

func (c *Controller) setAuthenticated(user *api.User, accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusAuthenticated
	c.user = user
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

func (c *Controller) setUnauthenticated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusUnauthenticated
	c.user = nil
	c.accessToken = ""
	c.refreshToken = ""
}

func (c *Controller) resolveUnauthenticated() Status {
	c.setUnauthenticated()
	return StatusUnauthenticated
}

// validationError maps validator field errors onto the api taxonomy.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &api.ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &api.ValidationError{Fields: fields}
}
