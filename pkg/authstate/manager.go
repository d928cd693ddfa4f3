package authstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/barakahq/authkit/pkg/billing"
	"github.com/barakahq/authkit/pkg/identity"
	"github.com/barakahq/authkit/pkg/profiles"
	"github.com/barakahq/authkit/pkg/ratelimit"
	"github.com/barakahq/authkit/pkg/shadow"
)

// Manager owns the session state. It is the single writer; all consumers
// go through its operations and read snapshots via State.
type Manager struct {
	provider identity.Provider
	billing  billing.StatusChecker
	profiles profiles.Store
	shadow   shadow.Store
	nav      Navigator
	log      *slog.Logger
	cfg      Config
	now      func() time.Time

	signupStore   ratelimit.Store
	resetStore    ratelimit.Store
	signupLimiter *ratelimit.Window
	resetLimiter  *ratelimit.Window

	mu             sync.Mutex
	state          State
	suppressSignIn bool
	watchdog       *time.Timer

	unsubscribe func()
	wake        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// New creates a session manager and subscribes it to the provider's
// session-change stream. Panics on nil required collaborators to fail fast
// during initialization.
func New(provider identity.Provider, checker billing.StatusChecker, profileStore profiles.Store, shadowStore shadow.Store, opts ...Option) (*Manager, error) {
	if provider == nil {
		panic("authstate: identity provider is required")
	}
	if checker == nil {
		panic("authstate: billing status checker is required")
	}
	if profileStore == nil {
		panic("authstate: profile store is required")
	}
	if shadowStore == nil {
		panic("authstate: shadow store is required")
	}

	m := &Manager{
		provider: provider,
		billing:  checker,
		profiles: profileStore,
		shadow:   shadowStore,
		nav:      noopNavigator{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:      DefaultConfig(),
		now:      time.Now,
		state:    State{IsLoading: true},
		// Sign-in events observed before Initialize completes are
		// synthetic replays of the ambient session and are suppressed to
		// avoid a double transition.
		suppressSignIn: true,
		signupStore:    ratelimit.NewMemoryStore(),
		resetStore:     ratelimit.NewMemoryStore(),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	var err error
	m.signupLimiter, err = ratelimit.NewWindow(m.signupStore, ratelimit.Config{
		MaxAttempts: m.cfg.MaxSignupAttempts,
		Window:      m.cfg.RateLimitWindow,
	}, ratelimit.WithClock(m.now))
	if err != nil {
		return nil, err
	}
	m.resetLimiter, err = ratelimit.NewWindow(m.resetStore, ratelimit.Config{
		MaxAttempts: m.cfg.MaxResetAttempts,
		Window:      m.cfg.RateLimitWindow,
	}, ratelimit.WithClock(m.now))
	if err != nil {
		return nil, err
	}

	m.unsubscribe = provider.OnSessionChange(m.handleSessionChange)

	return m, nil
}

// State returns a point-in-time snapshot of the session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

// HasReachedLimit reports whether the signed-in user has exhausted the
// free-tier generation quota. Always false for premium users. The value is
// derived from the current user on every call, never cached.
func (m *Manager) HasReachedLimit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.state.User
	return u != nil && !u.IsPremium && u.RecipeCount >= m.cfg.FreeGenerationLimit
}

// Initialize loads the ambient provider session and populates the session
// state. It always leaves the state with IsLoading false and IsInitialized
// true, whether it succeeded, failed, or was forced by the watchdog, so
// dependent UI never blocks forever. Failures are reflected in the state's
// Error, not returned.
func (m *Manager) Initialize(ctx context.Context) {
	m.armWatchdog()
	defer func() {
		m.mu.Lock()
		if m.watchdog != nil {
			m.watchdog.Stop()
			m.watchdog = nil
		}
		m.suppressSignIn = false
		m.mu.Unlock()
	}()

	sess, err := m.provider.GetSession(ctx)
	if err != nil || sess == nil {
		var msg string
		if err != nil && !errors.Is(err, identity.ErrNoSession) {
			m.log.ErrorContext(ctx, "session initialization failed", "error", err)
			msg = "Failed to initialize authentication"
		}
		m.setAnonymous(msg)
		return
	}

	m.reconcile(ctx, sess)
}

// RefreshSession re-reads the ambient session and reconciles the state.
// Callable repeatedly; it toggles IsLoading but never resets IsInitialized.
// Overlapping refreshes are tolerated: each writes a full snapshot, so the
// last writer wins.
func (m *Manager) RefreshSession(ctx context.Context) {
	m.mu.Lock()
	m.state.IsLoading = true
	m.state.Error = ""
	m.mu.Unlock()

	sess, err := m.provider.GetSession(ctx)
	if err != nil && !errors.Is(err, identity.ErrNoSession) {
		m.log.ErrorContext(ctx, "session refresh failed", "error", err)
		m.mu.Lock()
		m.state.IsLoading = false
		m.state.IsInitialized = true
		m.state.Error = "Failed to refresh session"
		m.mu.Unlock()
		return
	}

	if sess == nil {
		m.clearState(ctx)
		return
	}

	m.reconcile(ctx, sess)
}

// Run drives the periodic refresh loop until ctx is cancelled or the
// manager is closed. WakeRefresh triggers an immediate refresh, the hook
// for hosts that regain foreground visibility.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.RefreshSession(ctx)
		case <-m.wake:
			m.RefreshSession(ctx)
		}
	}
}

// WakeRefresh requests an immediate out-of-band refresh from the Run loop.
// Non-blocking; a pending request is coalesced.
func (m *Manager) WakeRefresh() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Close unsubscribes from the provider stream and stops the refresh loop
// and watchdog. Idempotent.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.mu.Lock()
		if m.watchdog != nil {
			m.watchdog.Stop()
			m.watchdog = nil
		}
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

// reconcile computes the full state from an authoritative session read:
// premium flag from the billing collaborator, the persisted recipe count as
// a latency hint, and email confirmation from the session's verification
// timestamp. It then persists the shadow copy.
func (m *Manager) reconcile(ctx context.Context, sess *identity.Session) {
	isPremium := m.billing.CheckSubscriptionStatus(ctx, sess.UserID)
	recipeCount := m.persistedRecipeCount(ctx)
	confirmed := sess.EmailConfirmed()

	user := newProfile(sess, recipeCount, isPremium, confirmed)

	m.mu.Lock()
	m.state = State{
		User:            user,
		Session:         sess,
		IsAuthenticated: confirmed,
		IsLoading:       false,
		IsInitialized:   true,
	}
	m.mu.Unlock()

	m.persistState(ctx)
}

func (m *Manager) handleSessionChange(event identity.EventType, sess *identity.Session) {
	switch event {
	case identity.EventSignedIn:
		m.handleSignedIn(sess)
	case identity.EventSignedOut:
		m.clearState(context.Background())
	case identity.EventTokenRefreshed:
		if sess == nil {
			return
		}
		// Only the opaque session handle is replaced; the user profile is
		// untouched.
		m.mu.Lock()
		m.state.Session = sess
		m.mu.Unlock()
		m.persistState(context.Background())
	}
}

func (m *Manager) handleSignedIn(sess *identity.Session) {
	m.mu.Lock()
	suppressed := m.suppressSignIn
	m.mu.Unlock()
	if suppressed {
		m.log.Debug("skipping sign-in event during initialization")
		return
	}
	if sess == nil {
		return
	}

	ctx := context.Background()
	isPremium := m.billing.CheckSubscriptionStatus(ctx, sess.UserID)
	confirmed := sess.EmailConfirmed()

	recipeCount, err := m.profiles.GenerationsLeft(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, profiles.ErrProfileNotFound) {
			m.log.ErrorContext(ctx, "failed to load profile", "user_id", sess.UserID, "error", err)
		}
		recipeCount = 0
	}

	user := newProfile(sess, recipeCount, isPremium, confirmed)

	m.mu.Lock()
	m.state = State{
		User:            user,
		Session:         sess,
		IsAuthenticated: confirmed,
		IsLoading:       false,
		IsInitialized:   true,
	}
	m.mu.Unlock()

	m.persistState(ctx)

	if confirmed {
		m.nav.NavigateTo(RouteDashboard)
	} else {
		m.nav.NavigateTo(RouteEmailConfirmation)
	}
}

// armWatchdog starts the initialization watchdog. If initialization has not
// completed within InitTimeout, the state is force-completed so the UI can
// show a recoverable error instead of an infinite loading screen.
func (m *Manager) armWatchdog() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsInitialized || !m.state.IsLoading {
		return
	}
	m.watchdog = time.AfterFunc(m.cfg.InitTimeout, m.forceInitialized)
}

func (m *Manager) forceInitialized() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsInitialized {
		return
	}
	m.log.Warn("initialization watchdog fired, forcing completion")
	m.state.IsLoading = false
	m.state.IsInitialized = true
	m.state.Error = ErrInitializationTimeout.Error()
}

// setAnonymous writes the anonymous baseline without touching the shadow
// copy. Used when no ambient session exists at startup.
func (m *Manager) setAnonymous(errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = State{
		IsLoading:     false,
		IsInitialized: true,
		Error:         errMsg,
	}
}

// clearState resets to the anonymous baseline and clears the persisted
// shadow copy. Used on sign-out and when a refresh finds no session.
func (m *Manager) clearState(ctx context.Context) {
	if err := m.shadow.Clear(ctx); err != nil {
		m.log.WarnContext(ctx, "failed to clear persisted auth state", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = State{
		IsLoading:     false,
		IsInitialized: true,
	}
}

// persistedRecipeCount reads the shadow copy's recipe count, the only field
// it is authoritative enough to seed. Absence or failure falls back to 0.
func (m *Manager) persistedRecipeCount(ctx context.Context) int {
	snap, err := m.shadow.Load(ctx)
	if err != nil {
		if !errors.Is(err, shadow.ErrSnapshotNotFound) {
			m.log.WarnContext(ctx, "failed to load persisted auth state", "error", err)
		}
		return 0
	}
	if snap.User == nil {
		return 0
	}
	return snap.User.RecipeCount
}

// persistState saves the shadow copy. Best-effort: failures are logged and
// swallowed so persistence never blocks the auth flow.
func (m *Manager) persistState(ctx context.Context) {
	m.mu.Lock()
	snap := &shadow.Snapshot{}
	if u := m.state.User; u != nil {
		snap.User = &shadow.User{
			ID:             u.ID,
			Name:           u.Name,
			Email:          u.Email,
			IsPremium:      u.IsPremium,
			RecipeCount:    u.RecipeCount,
			EmailConfirmed: u.EmailConfirmed,
		}
	}
	if s := m.state.Session; s != nil {
		snap.Session = &shadow.Session{
			AccessToken: s.AccessToken,
			ExpiresAt:   s.ExpiresAt,
		}
	}
	m.mu.Unlock()

	if err := m.shadow.Save(ctx, snap); err != nil {
		m.log.WarnContext(ctx, "failed to persist auth state", "error", err)
	}
}
