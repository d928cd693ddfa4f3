package shadow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// FileStore persists the snapshot as a JSON file, the desktop analogue of
// the browser's local storage. The file is written with owner-only
// permissions since it carries an access token.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to the given file path. The parent
// directory must exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NewDefaultFileStore places the snapshot in the user cache directory under
// the default application key.
func NewDefaultFileStore() (*FileStore, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return NewFileStore(filepath.Join(dir, DefaultKey+".json")), nil
}

func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt snapshot is equivalent to no snapshot.
		return nil, ErrSnapshotNotFound
	}
	return &snap, nil
}

func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
