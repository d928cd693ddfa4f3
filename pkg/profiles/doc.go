// Package profiles stores the per-user free-tier usage counter
// (generations_left), keyed by user id. The session manager reads it when a
// sign-in completes and upserts it when a generation is consumed.
package profiles
