package authstate

import "time"

// Config holds session manager configuration.
type Config struct {
	// InitTimeout bounds how long dependent UI can be stuck behind the
	// initial load before the watchdog force-completes initialization.
	InitTimeout time.Duration `env:"AUTH_INIT_TIMEOUT" envDefault:"10s"`

	// RefreshInterval is the period between background session refreshes.
	RefreshInterval time.Duration `env:"AUTH_REFRESH_INTERVAL" envDefault:"5m"`

	// RateLimitWindow is the rolling window for per-email signup and
	// password-reset attempt counting.
	RateLimitWindow   time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"1m"`
	MaxSignupAttempts int           `env:"AUTH_MAX_SIGNUP_ATTEMPTS" envDefault:"3"`
	MaxResetAttempts  int           `env:"AUTH_MAX_RESET_ATTEMPTS" envDefault:"3"`

	MinPasswordLength int `env:"AUTH_MIN_PASSWORD_LENGTH" envDefault:"8"`

	// FreeGenerationLimit is the recipe-generation quota gating free users.
	FreeGenerationLimit int `env:"AUTH_FREE_GENERATION_LIMIT" envDefault:"3"`

	// ResetRedirectURL is passed to the provider with password-reset
	// requests.
	ResetRedirectURL string `env:"AUTH_RESET_REDIRECT_URL" envDefault:"/reset-password"`
}

// DefaultConfig returns default session manager configuration.
func DefaultConfig() Config {
	return Config{
		InitTimeout:         10 * time.Second,
		RefreshInterval:     5 * time.Minute,
		RateLimitWindow:     time.Minute,
		MaxSignupAttempts:   3,
		MaxResetAttempts:    3,
		MinPasswordLength:   8,
		FreeGenerationLimit: 3,
		ResetRedirectURL:    "/reset-password",
	}
}
