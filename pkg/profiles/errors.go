package profiles

import "errors"

var (
	// ErrProfileNotFound indicates no profile row exists for the user.
	ErrProfileNotFound = errors.New("profiles.not_found")

	// ErrStoreUnavailable indicates the backend could not be reached.
	ErrStoreUnavailable = errors.New("profiles.store_unavailable")
)
