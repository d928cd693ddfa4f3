package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a session-change notification emitted by a provider.
type EventType string

// Session-change events. The payload session is nil for EventSignedOut.
const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Session is the opaque session handle issued by the identity provider.
// It is exclusively owned by the session manager and must not be mutated
// by consumers.
type Session struct {
	UserID           uuid.UUID
	Email            string
	Name             string
	EmailConfirmedAt *time.Time
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time
}

// EmailConfirmed reports whether the provider has recorded a verification
// timestamp for the account behind this session.
func (s *Session) EmailConfirmed() bool {
	return s != nil && s.EmailConfirmedAt != nil
}

// Clone returns a deep copy of the session, or nil for a nil session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EmailConfirmedAt != nil {
		t := *s.EmailConfirmedAt
		c.EmailConfirmedAt = &t
	}
	return &c
}

// Metadata carries optional attributes attached to an account at signup.
type Metadata struct {
	Name string
}

// SignUpResult is the outcome of a signup call. Session is nil when the
// account requires email confirmation before a session can be issued.
type SignUpResult struct {
	UserID  uuid.UUID
	Session *Session
}

// OTPOptions configures a passwordless sign-in request. With CreateUser
// false the request acts as a pure existence probe: it succeeds only for
// already-registered emails.
type OTPOptions struct {
	CreateUser bool
}

// ChangeHandler receives session-change notifications. The session payload
// is nil for sign-out events.
type ChangeHandler func(event EventType, session *Session)

// Provider is the identity-provider contract consumed by the session manager.
type Provider interface {
	// GetSession returns the current ambient session, or ErrNoSession when
	// none exists.
	GetSession(ctx context.Context) (*Session, error)

	// SignInWithPassword authenticates with email and password. Fails with
	// ErrInvalidCredentials on a rejected password and ErrEmailNotConfirmed
	// when the account exists but is unverified. Emits EventSignedIn on
	// success.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account. The result carries no session when the
	// account still needs email confirmation.
	SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error)

	// SignInWithOTP requests a passwordless sign-in. With CreateUser false it
	// returns ErrUserNotFound for unregistered emails and nil when the
	// account exists.
	SignInWithOTP(ctx context.Context, email string, opts OTPOptions) error

	// SignOut terminates the current session and emits EventSignedOut.
	// Calling it without an active session is a no-op.
	SignOut(ctx context.Context) error

	// ResetPasswordForEmail requests a password-reset email. The provider
	// responds generically regardless of whether the email is registered.
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error

	// OnSessionChange registers a handler for session-change events and
	// returns an unsubscribe function.
	OnSessionChange(handler ChangeHandler) (unsubscribe func())
}
