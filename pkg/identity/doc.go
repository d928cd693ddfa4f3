// Package identity defines the boundary to the external identity provider:
// the service of record for credentials, sessions, and email verification.
//
// The Provider interface mirrors the operations the session manager needs
// (ambient session lookup, password sign-in, signup, passwordless probe,
// sign-out, password reset) plus a change-notification stream emitting
// SIGNED_IN, SIGNED_OUT and TOKEN_REFRESHED events.
//
// Two implementations are included: HTTPProvider talks to a hosted
// GoTrue-compatible auth endpoint over REST, and LocalProvider is a
// self-contained in-memory provider for tests and self-hosted setups.
//
// # Usage
//
//	provider := identity.NewLocalProvider()
//	unsubscribe := provider.OnSessionChange(func(event identity.EventType, sess *identity.Session) {
//	    // react to session changes
//	})
//	defer unsubscribe()
//
//	sess, err := provider.SignInWithPassword(ctx, "user@example.com", "secret")
package identity
