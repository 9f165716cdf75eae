package store

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. A positive budget caps the total
// size of all values, the way browser storage caps an origin.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	used   int
	budget int
}

// NewMemoryStore creates an unbounded in-memory store
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithBudget(0)
}

// NewMemoryStoreWithBudget creates an in-memory store limited to budget bytes
func NewMemoryStoreWithBudget(budget int) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string][]byte),
		budget: budget,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used - len(s.data[key]) + len(value)
	if s.budget > 0 && used > s.budget {
		return ErrQuotaExceeded
	}

	s.data[key] = append([]byte(nil), value...)
	s.used = used
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.used -= len(s.data[key])
		delete(s.data, key)
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored keys
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ Store = (*MemoryStore)(nil)
