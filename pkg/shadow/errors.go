package shadow

import "errors"

var (
	// ErrSnapshotNotFound indicates no snapshot is stored.
	ErrSnapshotNotFound = errors.New("shadow.snapshot_not_found")

	// ErrStoreUnavailable indicates the backend could not be reached.
	ErrStoreUnavailable = errors.New("shadow.store_unavailable")
)
