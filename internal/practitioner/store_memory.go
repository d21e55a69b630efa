package practitioner

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "cpdtrack/pkg/domain"
)

// InMemoryStore is a map-backed practitioner registry used by tests and
// local runs.
type InMemoryStore struct {
	mu            sync.RWMutex
	practitioners map[id.PractitionerID]Practitioner
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{practitioners: make(map[id.PractitionerID]Practitioner)}
}

// Put inserts or replaces a practitioner.
func (s *InMemoryStore) Put(p Practitioner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.practitioners[p.ID] = p
}

func (s *InMemoryStore) FindByIDs(_ context.Context, practitionerIDs []id.PractitionerID) ([]*Practitioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]*Practitioner, 0, len(practitionerIDs))
	for _, practitionerID := range practitionerIDs {
		if p, ok := s.practitioners[practitionerID]; ok {
			copied := p
			found = append(found, &copied)
		}
	}
	return found, nil
}

func (s *InMemoryStore) ListFiltered(_ context.Context, filter Filter, limit, offset int) ([]*Practitioner, error) {
	s.mu.RLock()
	matching := make([]Practitioner, 0, len(s.practitioners))
	for _, p := range s.practitioners {
		if matches(p, filter) {
			matching = append(matching, p)
		}
	}
	s.mu.RUnlock()

	// Same stable ordering as the SQL store: (full_name, id).
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].FullName != matching[j].FullName {
			return matching[i].FullName < matching[j].FullName
		}
		return matching[i].ID.String() < matching[j].ID.String()
	})

	if offset >= len(matching) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	page := make([]*Practitioner, 0, end-offset)
	for i := offset; i < end; i++ {
		copied := matching[i]
		page = append(page, &copied)
	}
	return page, nil
}

func matches(p Practitioner, filter Filter) bool {
	if filter.UnitID != nil && p.UnitID != *filter.UnitID {
		return false
	}
	if filter.WorkStatus != "" && p.WorkStatus != filter.WorkStatus {
		return false
	}
	if filter.Title != "" && p.Title != filter.Title {
		return false
	}
	if filter.Department != "" && p.Department != filter.Department {
		return false
	}
	if filter.Search != "" &&
		!strings.Contains(strings.ToLower(p.FullName), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}
