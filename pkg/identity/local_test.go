package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/barakahq/authkit/pkg/identity"
)

func newProvider(opts ...identity.LocalOption) *identity.LocalProvider {
	opts = append([]identity.LocalOption{identity.WithBcryptCost(bcrypt.MinCost)}, opts...)
	return identity.NewLocalProvider(opts...)
}

// eventLog records session-change notifications in order.
type eventLog struct {
	mu     sync.Mutex
	events []identity.EventType
}

func (l *eventLog) handler(event identity.EventType, sess *identity.Session) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) all() []identity.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]identity.EventType(nil), l.events...)
}

func TestLocalProvider_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("new account awaits confirmation", func(t *testing.T) {
		p := newProvider()

		result, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{Name: "Ada"})
		require.NoError(t, err)
		assert.Nil(t, result.Session)
		assert.NotEqual(t, uuid.Nil, result.UserID)

		_, err = p.GetSession(ctx)
		assert.ErrorIs(t, err, identity.ErrNoSession)
	})

	t.Run("auto confirm issues a session", func(t *testing.T) {
		p := newProvider(identity.WithAutoConfirm())
		log := new(eventLog)
		p.OnSessionChange(log.handler)

		result, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{Name: "Ada"})
		require.NoError(t, err)
		require.NotNil(t, result.Session)
		assert.True(t, result.Session.EmailConfirmed())
		assert.Equal(t, "Ada", result.Session.Name)
		assert.Equal(t, []identity.EventType{identity.EventSignedIn}, log.all())

		sess, err := p.GetSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, result.UserID, sess.UserID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		p := newProvider()
		_, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{})
		require.NoError(t, err)

		_, err = p.SignUp(ctx, "ADA@example.com", "other-password", identity.Metadata{})
		assert.ErrorIs(t, err, identity.ErrEmailAlreadyExists)
	})
}

func TestLocalProvider_SignInWithPassword(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, p *identity.LocalProvider, confirm bool) {
		t.Helper()
		_, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{Name: "Ada"})
		require.NoError(t, err)
		if confirm {
			require.NoError(t, p.ConfirmEmail("ada@example.com"))
		}
	}

	t.Run("success emits signed-in", func(t *testing.T) {
		p := newProvider()
		seed(t, p, true)
		log := new(eventLog)
		p.OnSessionChange(log.handler)

		sess, err := p.SignInWithPassword(ctx, "ada@example.com", "correct-horse")
		require.NoError(t, err)
		assert.True(t, sess.EmailConfirmed())
		assert.NotEmpty(t, sess.AccessToken)
		assert.Equal(t, []identity.EventType{identity.EventSignedIn}, log.all())
	})

	t.Run("wrong password", func(t *testing.T) {
		p := newProvider()
		seed(t, p, true)

		_, err := p.SignInWithPassword(ctx, "ada@example.com", "wrong")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		p := newProvider()

		_, err := p.SignInWithPassword(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("unconfirmed account", func(t *testing.T) {
		p := newProvider()
		seed(t, p, false)

		_, err := p.SignInWithPassword(ctx, "ada@example.com", "correct-horse")
		assert.ErrorIs(t, err, identity.ErrEmailNotConfirmed)
	})
}

func TestLocalProvider_SignInWithOTP(t *testing.T) {
	ctx := context.Background()
	p := newProvider()
	_, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{})
	require.NoError(t, err)

	t.Run("existing email", func(t *testing.T) {
		err := p.SignInWithOTP(ctx, "ada@example.com", identity.OTPOptions{CreateUser: false})
		assert.NoError(t, err)
	})

	t.Run("unknown email without create", func(t *testing.T) {
		err := p.SignInWithOTP(ctx, "nobody@example.com", identity.OTPOptions{CreateUser: false})
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
	})
}

func TestLocalProvider_SignOut(t *testing.T) {
	ctx := context.Background()
	p := newProvider(identity.WithAutoConfirm())
	log := new(eventLog)
	p.OnSessionChange(log.handler)

	_, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{})
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx))
	_, err = p.GetSession(ctx)
	assert.ErrorIs(t, err, identity.ErrNoSession)

	// A second sign-out has no session to terminate and emits nothing.
	require.NoError(t, p.SignOut(ctx))
	assert.Equal(t, []identity.EventType{identity.EventSignedIn, identity.EventSignedOut}, log.all())
}

func TestLocalProvider_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the access token", func(t *testing.T) {
		p := newProvider(identity.WithAutoConfirm(), identity.WithTokenTTL(time.Hour))
		log := new(eventLog)
		p.OnSessionChange(log.handler)

		result, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{})
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond) // JWT iat has second granularity
		require.NoError(t, p.RefreshToken())

		sess, err := p.GetSession(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, result.Session.AccessToken, sess.AccessToken)
		assert.Equal(t, []identity.EventType{identity.EventSignedIn, identity.EventTokenRefreshed}, log.all())
	})

	t.Run("requires a session", func(t *testing.T) {
		p := newProvider()
		assert.ErrorIs(t, p.RefreshToken(), identity.ErrNoSession)
	})
}

func TestLocalProvider_SessionExpiry(t *testing.T) {
	ctx := context.Background()
	p := newProvider(identity.WithAutoConfirm(), identity.WithTokenTTL(time.Millisecond))

	_, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = p.GetSession(ctx)
	assert.ErrorIs(t, err, identity.ErrNoSession)
}

func TestLocalProvider_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	p := newProvider(identity.WithAutoConfirm())
	log := new(eventLog)
	unsubscribe := p.OnSessionChange(log.handler)
	unsubscribe()

	_, err := p.SignUp(ctx, "ada@example.com", "correct-horse", identity.Metadata{})
	require.NoError(t, err)

	assert.Empty(t, log.all())
}

func TestLocalProvider_ResetPasswordForEmail(t *testing.T) {
	ctx := context.Background()
	p := newProvider()

	// Generic by contract: unknown emails are accepted too.
	require.NoError(t, p.ResetPasswordForEmail(ctx, "Ada@Example.com", "/reset-password"))
	require.NoError(t, p.ResetPasswordForEmail(ctx, "nobody@example.com", "/reset-password"))

	assert.Equal(t, []string{"ada@example.com", "nobody@example.com"}, p.ResetRequests())
}
