package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/barakahq/authkit/pkg/billing"
)

func TestCheckerFunc(t *testing.T) {
	ctx := context.Background()
	premiumID := uuid.New()

	checker := billing.CheckerFunc(func(ctx context.Context, userID uuid.UUID) bool {
		return userID == premiumID
	})

	assert.True(t, checker.CheckSubscriptionStatus(ctx, premiumID))
	assert.False(t, checker.CheckSubscriptionStatus(ctx, uuid.New()))
}

func TestStaticChecker(t *testing.T) {
	ctx := context.Background()
	premiumID := uuid.New()

	checker := billing.StaticChecker{Premium: map[uuid.UUID]bool{premiumID: true}}

	assert.True(t, checker.CheckSubscriptionStatus(ctx, premiumID))
	assert.False(t, checker.CheckSubscriptionStatus(ctx, uuid.New()))

	t.Run("nil map", func(t *testing.T) {
		empty := billing.StaticChecker{}
		assert.False(t, empty.CheckSubscriptionStatus(ctx, premiumID))
	})
}
