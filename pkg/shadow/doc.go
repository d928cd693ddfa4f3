// Package shadow persists a local, best-effort snapshot of session-derived
// state under a fixed application key. The snapshot is used only to reduce
// perceived latency across process restarts (it seeds the remaining recipe
// generation count before the authoritative refresh completes); it is never
// treated as a source of truth for authentication.
//
// Store failures must never block the auth flow: callers log and swallow
// them. Three backends are provided: a JSON file, Redis, and process memory.
package shadow
