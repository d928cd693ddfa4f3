package authstate

import (
	"errors"

	"github.com/barakahq/authkit/pkg/identity"
)

// Provider-originated failures keep their identity sentinel so errors.Is
// checks work across package boundaries.
var (
	ErrInvalidCredentials  = identity.ErrInvalidCredentials
	ErrEmailNotConfirmed   = identity.ErrEmailNotConfirmed
	ErrEmailAlreadyExists  = identity.ErrEmailAlreadyExists
	ErrProviderUnavailable = identity.ErrProviderUnavailable
)

var (
	// ErrRateLimited indicates a credential operation was rejected locally
	// before any network call was made.
	ErrRateLimited = errors.New("authstate.rate_limited")

	// ErrWeakPassword indicates the password failed local validation.
	ErrWeakPassword = errors.New("authstate.weak_password")

	// ErrNotAuthenticated indicates an operation requiring a signed-in user
	// was called without one.
	ErrNotAuthenticated = errors.New("authstate.not_authenticated")

	// ErrInitializationTimeout is the watchdog's forced-completion error.
	ErrInitializationTimeout = errors.New("authentication initialization timed out")
)
