package audit

import (
	"context"
	"sync"
)

// InMemoryStore collects audit events per decision. Default sink when no
// broker is configured; also the fake of choice in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.DecisionID] = append(s.events[event.DecisionID], event)
	return nil
}

func (s *InMemoryStore) ListByDecision(_ context.Context, decisionID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[decisionID]...), nil
}
