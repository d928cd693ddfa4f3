package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Config defines a fixed-window limit.
type Config struct {
	MaxAttempts int           // Attempts allowed per window
	Window      time.Duration // Window length
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Limit     int       // Attempts allowed per window
	Remaining int       // Attempts remaining after this one; negative when denied
	ResetAt   time.Time // When the current window expires
}

// Allowed reports whether the attempt is allowed.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next attempt.
// Returns 0 if the attempt was allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Store is the storage backend for window counters.
type Store interface {
	// Take records an attempt for key and returns the remaining attempt
	// count and the window expiry. A negative remaining count means the
	// attempt must be denied.
	Take(ctx context.Context, key string, now time.Time, cfg Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// Window is a fixed-window rate limiter over a Store.
type Window struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// WindowOption configures a Window during construction.
type WindowOption func(*Window)

// WithClock overrides the time source, used by tests to step through
// windows deterministically.
func WithClock(now func() time.Time) WindowOption {
	return func(w *Window) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWindow creates a fixed-window limiter with the given store and config.
func NewWindow(store Store, cfg Config, opts ...WindowOption) (*Window, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &Window{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Allow records an attempt for key and reports whether it fits the window.
func (w *Window) Allow(ctx context.Context, key string) (*Result, error) {
	now := w.now()
	remaining, resetAt, err := w.store.Take(ctx, key, now, w.cfg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Limit:     w.cfg.MaxAttempts,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the counter for key.
func (w *Window) Reset(ctx context.Context, key string) error {
	return w.store.Reset(ctx, key)
}
