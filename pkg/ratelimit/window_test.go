package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barakahq/authkit/pkg/ratelimit"
)

func TestNewWindow(t *testing.T) {
	store := ratelimit.NewMemoryStore()

	t.Run("valid config", func(t *testing.T) {
		w, err := ratelimit.NewWindow(store, ratelimit.Config{MaxAttempts: 3, Window: time.Minute})
		require.NoError(t, err)
		require.NotNil(t, w)
	})

	t.Run("rejects non-positive attempts", func(t *testing.T) {
		_, err := ratelimit.NewWindow(store, ratelimit.Config{MaxAttempts: 0, Window: time.Minute})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
	})

	t.Run("rejects non-positive window", func(t *testing.T) {
		_, err := ratelimit.NewWindow(store, ratelimit.Config{MaxAttempts: 3, Window: 0})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
	})
}

func TestWindow_Allow(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	newWindow := func(t *testing.T) *ratelimit.Window {
		t.Helper()
		w, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(),
			ratelimit.Config{MaxAttempts: 3, Window: time.Minute},
			ratelimit.WithClock(clock))
		require.NoError(t, err)
		return w
	}

	t.Run("counts down remaining attempts", func(t *testing.T) {
		w := newWindow(t)

		for want := 2; want >= 0; want-- {
			res, err := w.Allow(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.True(t, res.Allowed())
			assert.Equal(t, want, res.Remaining)
			assert.Equal(t, 3, res.Limit)
		}
	})

	t.Run("denies past the limit", func(t *testing.T) {
		w := newWindow(t)

		for i := 0; i < 3; i++ {
			_, err := w.Allow(ctx, "ada@example.com")
			require.NoError(t, err)
		}

		res, err := w.Allow(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
		assert.Negative(t, res.Remaining)
		assert.Equal(t, time.Minute, res.RetryAfter(now))
	})

	t.Run("keys are independent", func(t *testing.T) {
		w := newWindow(t)

		for i := 0; i < 4; i++ {
			_, err := w.Allow(ctx, "ada@example.com")
			require.NoError(t, err)
		}

		res, err := w.Allow(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("window expiry restores the budget", func(t *testing.T) {
		w, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(),
			ratelimit.Config{MaxAttempts: 3, Window: time.Minute},
			ratelimit.WithClock(func() time.Time { return now }))
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			_, err := w.Allow(ctx, "ada@example.com")
			require.NoError(t, err)
		}

		now = now.Add(61 * time.Second)

		res, err := w.Allow(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 2, res.Remaining)
	})

	t.Run("retry after is zero when allowed", func(t *testing.T) {
		w := newWindow(t)

		res, err := w.Allow(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Zero(t, res.RetryAfter(now))
	})
}

func TestWindow_Reset(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(),
		ratelimit.Config{MaxAttempts: 1, Window: time.Minute},
		ratelimit.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	_, err = w.Allow(ctx, "ada@example.com")
	require.NoError(t, err)

	res, err := w.Allow(ctx, "ada@example.com")
	require.NoError(t, err)
	require.False(t, res.Allowed())

	require.NoError(t, w.Reset(ctx, "ada@example.com"))

	res, err = w.Allow(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
}
