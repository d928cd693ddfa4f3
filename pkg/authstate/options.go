package authstate

import (
	"log/slog"
	"time"

	"github.com/barakahq/authkit/pkg/ratelimit"
)

// Option configures a Manager during construction.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithLogger sets the logger for the manager.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithNavigator sets the collaborator receiving navigation signals.
func WithNavigator(nav Navigator) Option {
	return func(m *Manager) {
		if nav != nil {
			m.nav = nav
		}
	}
}

// WithRateLimitStores overrides the counter backends for the signup and
// reset-password limiters, so deployments can share attempt counters
// across instances.
func WithRateLimitStores(signup, reset ratelimit.Store) Option {
	return func(m *Manager) {
		if signup != nil {
			m.signupStore = signup
		}
		if reset != nil {
			m.resetStore = reset
		}
	}
}

// WithClock overrides the time source used for rate-limit bookkeeping,
// letting tests step through windows deterministically.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
