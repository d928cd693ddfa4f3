package billing

import (
	"context"

	"github.com/google/uuid"
)

// StatusChecker reports whether a user holds an active subscription.
type StatusChecker interface {
	// CheckSubscriptionStatus returns true only when an active, non-deleted
	// subscription record is linked to the user's billing customer record.
	// Any error condition yields false.
	CheckSubscriptionStatus(ctx context.Context, userID uuid.UUID) bool
}

// CheckerFunc adapts a function to the StatusChecker interface.
type CheckerFunc func(ctx context.Context, userID uuid.UUID) bool

func (f CheckerFunc) CheckSubscriptionStatus(ctx context.Context, userID uuid.UUID) bool {
	return f(ctx, userID)
}

// StaticChecker reports a fixed set of premium users. Useful for tests and
// for wiring before a billing backend exists.
type StaticChecker struct {
	Premium map[uuid.UUID]bool
}

func (c StaticChecker) CheckSubscriptionStatus(ctx context.Context, userID uuid.UUID) bool {
	return c.Premium[userID]
}
