package profiles

import (
	"context"

	"github.com/google/uuid"
)

// Store is the profile-store contract consumed by the session manager.
type Store interface {
	// GenerationsLeft returns the remaining free-tier generation count for
	// the user, or ErrProfileNotFound when no profile row exists.
	GenerationsLeft(ctx context.Context, userID uuid.UUID) (int, error)

	// SetGenerationsLeft upserts the remaining generation count.
	SetGenerationsLeft(ctx context.Context, userID uuid.UUID, count int) error
}
