// Package billing exposes the subscription-status lookup the session
// manager calls on every initialize/refresh cycle. The contract is
// deliberately forgiving: a checker returns false on any not-found or
// error condition and never propagates an error into the auth flow.
// No caching layer exists; the call frequency is interval-gated by the
// session manager.
package billing
