package shadow

import (
	"context"
	"sync"
)

// MemoryStore keeps the snapshot in process memory. Useful for tests and
// for hosts that have no durable local storage.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil {
		return nil, ErrSnapshotNotFound
	}
	return cloneSnapshot(s.snap), nil
}

func (s *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = nil
	return nil
}

func cloneSnapshot(snap *Snapshot) *Snapshot {
	if snap == nil {
		return nil
	}
	c := &Snapshot{}
	if snap.User != nil {
		u := *snap.User
		c.User = &u
	}
	if snap.Session != nil {
		sess := *snap.Session
		c.Session = &sess
	}
	return c
}
