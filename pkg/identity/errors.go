package identity

import "errors"

var (
	// ErrNoSession indicates no ambient session exists.
	ErrNoSession = errors.New("identity.no_session")

	// ErrInvalidCredentials indicates the provider rejected the password.
	ErrInvalidCredentials = errors.New("identity.invalid_credentials")

	// ErrEmailNotConfirmed indicates the account exists but its email has
	// not been verified yet.
	ErrEmailNotConfirmed = errors.New("identity.email_not_confirmed")

	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.New("identity.email_already_exists")

	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("identity.user_not_found")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("identity.rate_limited")

	// ErrProviderUnavailable indicates the provider could not be reached or
	// returned an unexpected response.
	ErrProviderUnavailable = errors.New("identity.provider_unavailable")

	// ErrTokenGeneration indicates access token signing failed.
	ErrTokenGeneration = errors.New("identity.token_generation_failed")
)
