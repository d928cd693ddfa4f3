package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryStore keeps window counters in process memory. Counters are not
// persisted; a process restart clears them.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
	}
}

func (s *MemoryStore) Take(ctx context.Context, key string, now time.Time, cfg Config) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) > cfg.Window {
		entry = &windowEntry{windowStart: now}
		s.entries[key] = entry
	}

	entry.count++
	remaining := cfg.MaxAttempts - entry.count
	return remaining, entry.windowStart.Add(cfg.Window), nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
