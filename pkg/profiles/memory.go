package profiles

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[uuid.UUID]int)}
}

func (s *MemoryStore) GenerationsLeft(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, ok := s.counts[userID]
	if !ok {
		return 0, ErrProfileNotFound
	}
	return count, nil
}

func (s *MemoryStore) SetGenerationsLeft(ctx context.Context, userID uuid.UUID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[userID] = count
	return nil
}
