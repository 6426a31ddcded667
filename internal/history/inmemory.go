package history

import (
	"context"
	"sync"
)

// InMemoryStore is a simple in-process snapshot store for local/dev use.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string][]Turn)}
}

func (s *InMemoryStore) Load(_ context.Context, sessionID string) ([]Turn, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.snapshots[sessionID]
	if !ok {
		return nil, false, nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, true, nil
}

func (s *InMemoryStore) Save(_ context.Context, sessionID string, turns []Turn) error {
	kept := make([]Turn, len(turns))
	copy(kept, turns)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[sessionID] = kept
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
