// Package authstate owns the authenticated-user lifecycle for the Baraka
// recipe application: it initializes from the identity provider's ambient
// session, listens for session-change events, refreshes on an interval and
// on demand, keeps a best-effort persisted shadow copy, derives entitlement
// flags (free-tier generation quota, premium), and exposes the credential
// operations (login, signup, logout, password reset) with per-email rate
// limiting.
//
// The manager is the only writer of its session state. Consumers read a
// point-in-time snapshot via State and never mutate the session handle.
// Refreshes and provider events may interleave; every reconciliation writes
// a full snapshot computed from a fresh authoritative read, so overlapping
// writers degenerate to last-write-wins. Only two narrow patches exist:
// a token refresh replaces the session handle alone, and consuming a
// generation decrements the counter optimistically.
//
// # Usage
//
//	provider := identity.NewHTTPProvider(authURL, apiKey)
//	manager, err := authstate.New(provider, checker, profileStore, shadowStore,
//	    authstate.WithLogger(log),
//	)
//	if err != nil {
//	    log.Error("session manager setup failed", "error", err)
//	    return
//	}
//	defer manager.Close()
//
//	manager.Initialize(ctx)
//	go manager.Run(ctx)
package authstate
