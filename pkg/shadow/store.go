package shadow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultKey is the application-level key snapshots are stored under.
const DefaultKey = "barakaAuthState"

// User is the persisted projection of the in-memory user profile.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsPremium      bool      `json:"is_premium"`
	RecipeCount    int       `json:"recipe_count"`
	EmailConfirmed bool      `json:"email_confirmed"`
}

// Session is the persisted projection of the opaque provider session.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Snapshot is the last known {user, session} pair.
type Snapshot struct {
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// Store persists snapshots. Implementations are best-effort; callers treat
// every error as "no snapshot" and never fail the auth flow on one.
type Store interface {
	// Load returns the stored snapshot, or ErrSnapshotNotFound when absent.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Clear removes the stored snapshot. Clearing an absent snapshot is a
	// no-op.
	Clear(ctx context.Context) error
}
