package rule

import (
	"context"
	"sync"
)

// InMemoryStore holds rules in insertion order, for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	rules []CreditRule
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Put appends a rule.
func (s *InMemoryStore) Put(r CreditRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*CreditRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active []*CreditRule
	for i := range s.rules {
		if s.rules[i].Active {
			copied := s.rules[i]
			active = append(active, &copied)
		}
	}
	return active, nil
}
