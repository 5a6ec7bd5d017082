// Package session owns the client-side authentication session: restoring it
// at startup, establishing it through login, keeping it fresh through
// refresh, and tearing it down on logout.
//
// Manager is the only writer of the Container and of the secure token store.
// Mutating operations are stamped with the session generation when they start.
// The generation advances only on logout and on a committed session, so an
// operation that fails never invalidates one running beside it. A login
// commits unless a logout happened since it started; a refresh commits only
// if nothing at all happened since, so it never overwrites a newer session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/authapi"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Operation names used in logs and metrics.
const (
	OpRestore        = "restore"
	OpLogin          = "login"
	OpRegister       = "register"
	OpRefresh        = "refresh"
	OpLogout         = "logout"
	OpGoogleLogin    = "google_login"
	OpAppleLogin     = "apple_login"
	OpForgotPassword = "forgot_password"
	OpResetPassword  = "reset_password"
)

const defaultRestoreTimeout = 5 * time.Second

// Manager is the auth session state machine.
type Manager struct {
	api            authapi.Client
	store          tokenstore.Store
	container      *Container
	log            zerolog.Logger
	metrics        *Metrics
	loginLimiter   *rate.Limiter
	nowTime        func() time.Time
	restoreTimeout time.Duration

	// mu serializes generation changes with the commits that depend on them.
	mu             sync.Mutex
	generation     uint64
	logouts        uint64
	restoreStarted bool
	restored       chan struct{}

	refreshGroup singleflight.Group
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithLogger sets the logger (defaults to the zerolog global logger)
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMetrics records operation outcomes
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithLoginLimiter throttles password login attempts locally
func WithLoginLimiter(l *rate.Limiter) Option {
	return func(m *Manager) {
		m.loginLimiter = l
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithRestoreTimeout bounds the token store reads performed by Restore
func WithRestoreTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.restoreTimeout = d
	}
}

// WithContainer supplies the container to publish state into
func WithContainer(c *Container) Option {
	return func(m *Manager) {
		m.container = c
	}
}

// NewManager creates a Manager. Restore must be called before any other operation.
func NewManager(api authapi.Client, store tokenstore.Store, options ...Option) (*Manager, error) {
	if api == nil {
		return nil, autherrors.New("[NewManager] api client is required")
	}
	if store == nil {
		return nil, autherrors.New("[NewManager] token store is required")
	}

	m := &Manager{
		api:            api,
		store:          store,
		log:            log.Logger,
		nowTime:        time.Now,
		restoreTimeout: defaultRestoreTimeout,
		restored:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.container == nil {
		m.container = NewContainer()
	}
	m.log = m.log.With().Str("component", "session").Logger()
	m.container.Subscribe(m.metrics.track)

	return m, nil
}

// Container returns the read side of the session state.
func (m *Manager) Container() *Container {
	return m.container
}

// State is shorthand for Container().Snapshot().
func (m *Manager) State() State {
	return m.container.Snapshot()
}

// Restore reads persisted credentials and settles the session. It runs once;
// later calls wait for the first to finish and report its status. Store
// failures and timeouts count as "no session".
func (m *Manager) Restore(ctx context.Context) (Status, error) {
	m.mu.Lock()
	if m.restoreStarted {
		m.mu.Unlock()
		select {
		case <-m.restored:
			return m.State().Status, nil
		case <-ctx.Done():
			return m.State().Status, &AuthError{Kind: KindNotReady, Message: ctx.Err().Error(), Err: ctx.Err()}
		}
	}
	m.restoreStarted = true
	m.mu.Unlock()

	m.container.setStatus(StatusRestoring)

	readCtx, cancel := context.WithTimeout(ctx, m.restoreTimeout)
	accessToken := m.readKey(readCtx, tokenstore.KeyAccessToken)
	refreshToken := m.readKey(readCtx, tokenstore.KeyRefreshToken)
	userID := m.readKey(readCtx, tokenstore.KeyUserID)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(m.restored)

	if accessToken == "" || refreshToken == "" || userID == "" {
		m.log.Info().
			Bool("accessToken", accessToken != "").
			Bool("refreshToken", refreshToken != "").
			Bool("userId", userID != "").
			Msg("no complete persisted session")
		m.container.reset()
		m.metrics.observe(OpRestore, outcomeFailure)
		return StatusUnauthenticated, nil
	}

	m.container.authenticate(userID, accessToken, refreshToken, &authapi.User{ID: userID})
	m.log.Info().Str("userId", userID).Msg("session restored")
	m.metrics.observe(OpRestore, outcomeSuccess)
	return StatusAuthenticated, nil
}

// ClearError clears only the error field. It is valid in any state.
func (m *Manager) ClearError() {
	m.container.clearError()
}

// SetUser replaces the cached profile of the authenticated user. It does not
// touch credentials and is ignored unless the session is authenticated as user.ID.
func (m *Manager) SetUser(user authapi.User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.container.Snapshot()
	if !s.IsAuthenticated() || s.UserID != user.ID {
		return false
	}
	m.container.update(func(st *State) { st.User = &user })
	return true
}

func (m *Manager) ready() bool {
	select {
	case <-m.restored:
		return true
	default:
		return false
	}
}

// stamp records the session generation an operation started from.
type stamp struct {
	generation uint64
	logouts    uint64
}

// begin stamps a new mutating operation without invalidating any other.
func (m *Manager) begin() stamp {
	m.mu.Lock()
	st := stamp{generation: m.generation, logouts: m.logouts}
	m.mu.Unlock()
	m.container.beginOp()
	return st
}

// loggedOutSince reports whether a logout happened after st. Caller holds m.mu.
func (m *Manager) loggedOutSince(st stamp) bool {
	return m.logouts != st.logouts
}

// changedSince reports whether a logout or a committed session happened after
// st. Caller holds m.mu.
func (m *Manager) changedSince(st stamp) bool {
	return m.generation != st.generation
}

// commitSession persists and publishes a new session. Caller holds m.mu.
func (m *Manager) commitSession(ctx context.Context, userID, accessToken, refreshToken string, user *authapi.User) {
	m.generation++
	m.writeKey(ctx, tokenstore.KeyAccessToken, accessToken)
	m.writeKey(ctx, tokenstore.KeyRefreshToken, refreshToken)
	m.writeKey(ctx, tokenstore.KeyUserID, userID)

	if user == nil {
		user = &authapi.User{ID: userID}
	}
	m.container.authenticate(userID, accessToken, refreshToken, user)
}

// teardown clears persisted credentials and resets the container. Caller holds m.mu.
func (m *Manager) teardown(ctx context.Context) {
	for _, key := range tokenstore.SessionKeys {
		if err := m.store.Delete(ctx, key); err != nil {
			m.metrics.storeFailure("delete")
			m.log.Warn().Err(err).Str("key", key).Msg("failed to delete credential")
		}
	}
	m.container.reset()
}

// readKey returns the stored value or "" when absent or unreadable.
func (m *Manager) readKey(ctx context.Context, key string) string {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		if !autherrors.Is(err, tokenstore.ErrNotFound) {
			m.metrics.storeFailure("get")
			m.log.Warn().Err(err).Str("key", key).Msg("failed to read credential, treating as absent")
		}
		return ""
	}
	return v
}

// writeKey persists best effort. A failure is logged and does not fail the operation.
func (m *Manager) writeKey(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.metrics.storeFailure("set")
		m.log.Warn().Err(err).Str("key", key).Msg("failed to persist credential")
	}
}
