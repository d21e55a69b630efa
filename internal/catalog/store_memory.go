package catalog

import (
	"context"
	"sync"

	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed catalog used by tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.CatalogID]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.CatalogID]Entry)}
}

// Put inserts or replaces an entry.
func (s *InMemoryStore) Put(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

func (s *InMemoryStore) FindByID(_ context.Context, catalogID id.CatalogID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[catalogID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := entry
	return &copied, nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, catalogIDs []id.CatalogID) (map[id.CatalogID]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[id.CatalogID]*Entry, len(catalogIDs))
	for _, catalogID := range catalogIDs {
		if entry, ok := s.entries[catalogID]; ok {
			copied := entry
			found[catalogID] = &copied
		}
	}
	return found, nil
}
