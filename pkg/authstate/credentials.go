package authstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/barakahq/authkit/pkg/identity"
)

// Credential operations set the state's Error and return the typed error,
// so a form can show inline validation without depending on global state.

// Login authenticates with email and password. On success the state is
// populated through the provider's SIGNED_IN notification rather than
// directly, keeping reconciliation in one place.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.setLoading()

	sess, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		msg := "Failed to sign in"
		switch {
		case errors.Is(err, identity.ErrEmailNotConfirmed):
			msg = "Please confirm your email before signing in. Check your inbox for the confirmation link."
		case errors.Is(err, identity.ErrInvalidCredentials):
			msg = "Invalid email or password"
		case errors.Is(err, identity.ErrRateLimited):
			msg = "Too many sign-in attempts. Please try again later."
		}
		m.failOperation(msg)
		return err
	}

	// The provider should have rejected an unconfirmed account already;
	// this guards against providers that issue sessions regardless.
	if !sess.EmailConfirmed() {
		m.failOperation("Please confirm your email before signing in. Check your inbox for the confirmation link.")
		return ErrEmailNotConfirmed
	}

	return nil
}

// Signup registers a new account. Attempts are rate limited per email and
// the password is validated locally before any network call. A successful
// signup without a session means the account awaits email confirmation.
func (m *Manager) Signup(ctx context.Context, name, email, password string) error {
	m.setLoading()
	key := rateLimitKey(email)

	res, err := m.signupLimiter.Allow(ctx, key)
	if err != nil {
		// A broken counter store must not lock users out; let the attempt
		// through but leave a trace.
		m.log.ErrorContext(ctx, "signup rate limit check failed", "error", err)
	} else if !res.Allowed() {
		wait := res.RetryAfter(m.now()).Round(time.Second)
		m.failOperation(fmt.Sprintf("Too many signup attempts. Please wait %s before trying again.", wait))
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, wait)
	}

	if len(password) < m.cfg.MinPasswordLength {
		m.failOperation(fmt.Sprintf("Password must be at least %d characters long.", m.cfg.MinPasswordLength))
		return ErrWeakPassword
	}

	// Existence probe: a passwordless sign-in that does not auto-create a
	// user succeeds only for registered emails.
	if err := m.provider.SignInWithOTP(ctx, email, identity.OTPOptions{CreateUser: false}); err == nil {
		m.failOperation("An account with this email already exists. Please sign in instead.")
		return ErrEmailAlreadyExists
	}

	result, err := m.provider.SignUp(ctx, email, password, identity.Metadata{Name: name})
	if err != nil {
		msg := "Failed to sign up"
		switch {
		case errors.Is(err, identity.ErrRateLimited):
			msg = "Too many signup attempts. Please try again later."
		case errors.Is(err, identity.ErrEmailAlreadyExists):
			msg = "An account with this email already exists. Please sign in instead."
		}
		m.failOperation(msg)
		return err
	}

	// No session means the account needs email confirmation; the
	// confirmation flow completes elsewhere. With a session, the SIGNED_IN
	// notification has already populated the state.
	if result.Session == nil {
		m.mu.Lock()
		m.state.IsLoading = false
		m.state.Error = ""
		m.mu.Unlock()
	}

	return nil
}

// Logout signs out of the provider, clears the persisted shadow copy,
// resets to the anonymous baseline and signals navigation to the sign-in
// entry point. Idempotent: logging out while signed out still clears any
// stale persisted state.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		m.log.WarnContext(ctx, "provider sign-out failed", "error", err)
	}

	// The SIGNED_OUT notification also clears, but only fires when a
	// session existed; clear explicitly so stale local state never
	// survives.
	m.clearState(ctx)
	m.nav.NavigateTo(RouteAuth)
	return nil
}

// ResetPassword requests a password-reset email. Attempts are rate limited
// per email with a counter independent of signup's. The provider response
// is intentionally generic regardless of whether the email is registered.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	key := rateLimitKey(email)

	res, err := m.resetLimiter.Allow(ctx, key)
	if err != nil {
		m.log.ErrorContext(ctx, "reset rate limit check failed", "error", err)
	} else if !res.Allowed() {
		wait := res.RetryAfter(m.now()).Round(time.Second)
		m.failOperation(fmt.Sprintf("Too many reset attempts. Please wait %s before trying again.", wait))
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, wait)
	}

	m.setLoading()

	if err := m.provider.ResetPasswordForEmail(ctx, email, m.cfg.ResetRedirectURL); err != nil {
		msg := "An unexpected error occurred"
		if errors.Is(err, identity.ErrRateLimited) {
			msg = "Too many reset attempts. Please try again later."
		}
		m.failOperation(msg)
		return err
	}

	m.mu.Lock()
	m.state.IsLoading = false
	m.mu.Unlock()
	return nil
}

// setLoading marks an operation in flight and clears the previous error.
func (m *Manager) setLoading() {
	m.mu.Lock()
	m.state.IsLoading = true
	m.state.Error = ""
	m.mu.Unlock()
}

func (m *Manager) failOperation(msg string) {
	m.mu.Lock()
	m.state.IsLoading = false
	m.state.Error = msg
	m.mu.Unlock()
}

func rateLimitKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
