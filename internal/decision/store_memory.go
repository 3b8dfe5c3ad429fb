package decision

import (
	"context"
	"sync"

	"sentinelle/pkg/sentinel"
)

// InMemoryStore keeps decision records in a mutex-guarded map. It backs dev
// deployments and unit tests; production uses the PostgreSQL store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemoryStore creates an empty in-memory decision store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.DecisionID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.DecisionID] = record.Clone()
	return nil
}

// Len reports the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *InMemoryStore) Get(_ context.Context, decisionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[decisionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// AppendReview runs fn and applies its entry under the store lock, which
// serializes concurrent reviews of the same record.
func (s *InMemoryStore) AppendReview(_ context.Context, decisionID string, fn ReviewFunc) (*Record, ReviewEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[decisionID]
	if !ok {
		return nil, ReviewEntry{}, sentinel.ErrNotFound
	}
	entry := fn(record.Decision)
	record.Reviews = append(record.Reviews, entry)
	record.Decision = entry.FinalDecision
	return record.Clone(), entry, nil
}
