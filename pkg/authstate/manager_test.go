package authstate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/barakahq/authkit/pkg/authstate"
	"github.com/barakahq/authkit/pkg/billing"
	"github.com/barakahq/authkit/pkg/identity"
	"github.com/barakahq/authkit/pkg/profiles"
	"github.com/barakahq/authkit/pkg/shadow"
)

func confirmedSession(email string) *identity.Session {
	now := time.Now()
	return &identity.Session{
		UserID:           uuid.New(),
		Email:            email,
		Name:             "Test User",
		EmailConfirmedAt: &now,
		AccessToken:      "access-token",
		RefreshToken:     "refresh-token",
		ExpiresAt:        now.Add(time.Hour),
	}
}

func unconfirmedSession(email string) *identity.Session {
	return &identity.Session{
		UserID:      uuid.New(),
		Email:       email,
		AccessToken: "access-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func freeChecker() billing.StatusChecker {
	return billing.CheckerFunc(func(ctx context.Context, userID uuid.UUID) bool {
		return false
	})
}

func TestManager_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("no ambient session", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession)

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)

		state := mgr.State()
		assert.True(t, state.IsInitialized)
		assert.False(t, state.IsLoading)
		assert.False(t, state.IsAuthenticated)
		assert.Nil(t, state.User)
		assert.Empty(t, state.Error)
	})

	t.Run("provider failure surfaces in state not as error", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(nil, errors.New("connection refused"))

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)

		state := mgr.State()
		assert.True(t, state.IsInitialized)
		assert.False(t, state.IsLoading)
		assert.Equal(t, "Failed to initialize authentication", state.Error)
	})

	t.Run("ambient session reconciled", func(t *testing.T) {
		sess := confirmedSession("ada@example.com")
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(sess, nil)

		shadowStore := shadow.NewMemoryStore()
		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadowStore)
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)

		state := mgr.State()
		assert.True(t, state.IsInitialized)
		assert.True(t, state.IsAuthenticated)
		require.NotNil(t, state.User)
		assert.Equal(t, sess.UserID, state.User.ID)
		assert.Equal(t, "ada@example.com", state.User.Email)
		assert.True(t, state.User.EmailConfirmed)

		snap, err := shadowStore.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, snap.User)
		assert.Equal(t, sess.UserID, snap.User.ID)
	})

	t.Run("unconfirmed ambient session is not authenticated", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(unconfirmedSession("bob@example.com"), nil)

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)

		state := mgr.State()
		assert.True(t, state.IsInitialized)
		assert.False(t, state.IsAuthenticated)
		require.NotNil(t, state.User)
		assert.False(t, state.User.EmailConfirmed)
	})

	t.Run("sign-in notification during startup is suppressed", func(t *testing.T) {
		sess := confirmedSession("eve@example.com")
		provider := new(MockProvider)
		nav := new(routeRecorder)

		// The hosted SDK replays the ambient session as a synthetic sign-in
		// while the initial read is still in flight.
		provider.On("GetSession", mock.Anything).Run(func(args mock.Arguments) {
			provider.Emit(identity.EventSignedIn, sess)
		}).Return(sess, nil)

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore(),
			authstate.WithNavigator(nav))
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)

		assert.Empty(t, nav.all(), "suppressed sign-in must not navigate")
		assert.True(t, mgr.State().IsAuthenticated)
	})

	t.Run("sign-in notification after startup is handled", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession)

		var routes []string
		nav := authstate.NavigatorFunc(func(route string) {
			routes = append(routes, route)
		})

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore(),
			authstate.WithNavigator(nav))
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)
		provider.Emit(identity.EventSignedIn, confirmedSession("eve@example.com"))

		assert.Equal(t, []string{authstate.RouteDashboard}, routes)
		assert.True(t, mgr.State().IsAuthenticated)
	})
}

func TestManager_Watchdog(t *testing.T) {
	ctx := context.Background()

	release := make(chan struct{})
	provider := new(MockProvider)
	provider.On("GetSession", mock.Anything).Run(func(args mock.Arguments) {
		<-release
	}).Return(nil, identity.ErrNoSession)

	cfg := authstate.DefaultConfig()
	cfg.InitTimeout = 50 * time.Millisecond

	mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore(),
		authstate.WithConfig(cfg))
	require.NoError(t, err)
	defer mgr.Close()

	done := make(chan struct{})
	go func() {
		mgr.Initialize(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return mgr.State().IsInitialized
	}, time.Second, 5*time.Millisecond, "watchdog must force completion")

	state := mgr.State()
	assert.False(t, state.IsLoading)
	assert.Equal(t, authstate.ErrInitializationTimeout.Error(), state.Error)

	close(release)
	<-done

	assert.True(t, mgr.State().IsInitialized, "initialized never reverts")
}

func TestManager_RefreshSession(t *testing.T) {
	ctx := context.Background()

	t.Run("failure keeps initialized and sets error", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession).Once()
		provider.On("GetSession", mock.Anything).Return(nil, errors.New("gateway timeout"))

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)
		mgr.RefreshSession(ctx)

		state := mgr.State()
		assert.True(t, state.IsInitialized)
		assert.False(t, state.IsLoading)
		assert.Equal(t, "Failed to refresh session", state.Error)
	})

	t.Run("session expiry clears state and shadow copy", func(t *testing.T) {
		sess := confirmedSession("ada@example.com")
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(sess, nil).Once()
		provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession)

		shadowStore := shadow.NewMemoryStore()
		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadowStore)
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)
		require.NotNil(t, mgr.State().User)

		mgr.RefreshSession(ctx)

		state := mgr.State()
		assert.Nil(t, state.User)
		assert.False(t, state.IsAuthenticated)
		assert.True(t, state.IsInitialized)

		_, err = shadowStore.Load(ctx)
		assert.ErrorIs(t, err, shadow.ErrSnapshotNotFound)
	})

	t.Run("picks up premium status change", func(t *testing.T) {
		sess := confirmedSession("ada@example.com")
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(sess, nil)

		premium := false
		checker := billing.CheckerFunc(func(ctx context.Context, userID uuid.UUID) bool {
			return premium
		})

		mgr, err := authstate.New(provider, checker, profiles.NewMemoryStore(), shadow.NewMemoryStore())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)
		require.False(t, mgr.State().User.IsPremium)

		premium = true
		mgr.RefreshSession(ctx)
		assert.True(t, mgr.State().User.IsPremium)
	})
}

func TestManager_SessionEvents(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*MockProvider, *routeRecorder, *shadow.MemoryStore, *authstate.Manager) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession)
		nav := new(routeRecorder)
		shadowStore := shadow.NewMemoryStore()

		mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadowStore,
			authstate.WithNavigator(nav))
		require.NoError(t, err)
		t.Cleanup(func() { _ = mgr.Close() })

		mgr.Initialize(ctx)
		return provider, nav, shadowStore, mgr
	}

	t.Run("unconfirmed sign-in navigates to email confirmation", func(t *testing.T) {
		provider, nav, _, mgr := setup(t)

		provider.Emit(identity.EventSignedIn, unconfirmedSession("bob@example.com"))

		state := mgr.State()
		assert.False(t, state.IsAuthenticated)
		require.NotNil(t, state.User)
		assert.Equal(t, []string{authstate.RouteEmailConfirmation}, nav.all())
	})

	t.Run("token refresh patches session only", func(t *testing.T) {
		provider, _, _, mgr := setup(t)

		sess := confirmedSession("ada@example.com")
		provider.Emit(identity.EventSignedIn, sess)
		before := mgr.State()
		require.NotNil(t, before.User)

		refreshed := sess.Clone()
		refreshed.AccessToken = "rotated-token"
		provider.Emit(identity.EventTokenRefreshed, refreshed)

		after := mgr.State()
		assert.Equal(t, "rotated-token", after.Session.AccessToken)
		assert.Equal(t, before.User, after.User, "user profile untouched")
		assert.Equal(t, before.IsAuthenticated, after.IsAuthenticated)
	})

	t.Run("sign-out clears state and shadow copy", func(t *testing.T) {
		provider, _, shadowStore, mgr := setup(t)

		provider.Emit(identity.EventSignedIn, confirmedSession("ada@example.com"))
		require.NotNil(t, mgr.State().User)

		provider.Emit(identity.EventSignedOut, nil)

		state := mgr.State()
		assert.Nil(t, state.User)
		assert.Nil(t, state.Session)
		assert.False(t, state.IsAuthenticated)
		assert.True(t, state.IsInitialized)

		_, err := shadowStore.Load(ctx)
		assert.ErrorIs(t, err, shadow.ErrSnapshotNotFound)
	})

	t.Run("sign-in loads profile count", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession)

		sess := confirmedSession("ada@example.com")
		profileStore := profiles.NewMemoryStore()
		require.NoError(t, profileStore.SetGenerationsLeft(ctx, sess.UserID, 2))

		mgr, err := authstate.New(provider, freeChecker(), profileStore, shadow.NewMemoryStore())
		require.NoError(t, err)
		defer mgr.Close()

		mgr.Initialize(ctx)
		provider.Emit(identity.EventSignedIn, sess)

		require.NotNil(t, mgr.State().User)
		assert.Equal(t, 2, mgr.State().User.RecipeCount)
	})
}

func TestManager_ShadowSeeding(t *testing.T) {
	ctx := context.Background()

	sess := confirmedSession("ada@example.com")
	provider := new(MockProvider)
	provider.On("GetSession", mock.Anything).Return(sess, nil)

	shadowStore := shadow.NewMemoryStore()
	require.NoError(t, shadowStore.Save(ctx, &shadow.Snapshot{
		User: &shadow.User{
			ID:          sess.UserID,
			Email:       sess.Email,
			RecipeCount: 2,
		},
	}))

	mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadowStore)
	require.NoError(t, err)
	defer mgr.Close()

	mgr.Initialize(ctx)

	require.NotNil(t, mgr.State().User)
	assert.Equal(t, 2, mgr.State().User.RecipeCount, "persisted count seeds the fresh state")
}

func TestManager_WakeRefresh(t *testing.T) {
	sess := confirmedSession("ada@example.com")
	provider := new(MockProvider)
	provider.On("GetSession", mock.Anything).Return(sess, nil)

	cfg := authstate.DefaultConfig()
	cfg.RefreshInterval = time.Hour

	mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore(),
		authstate.WithConfig(cfg))
	require.NoError(t, err)
	defer mgr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	mgr.WakeRefresh()

	require.Eventually(t, func() bool {
		return mgr.State().User != nil
	}, time.Second, 5*time.Millisecond)
}

func TestManager_Close(t *testing.T) {
	provider := new(MockProvider)
	provider.On("GetSession", mock.Anything).Return(nil, identity.ErrNoSession)

	mgr, err := authstate.New(provider, freeChecker(), profiles.NewMemoryStore(), shadow.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close(), "close is idempotent")

	// Notifications after close are dropped.
	provider.Emit(identity.EventSignedIn, confirmedSession("ada@example.com"))
	assert.Nil(t, mgr.State().User)
}
