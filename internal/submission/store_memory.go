package submission

import (
	"context"
	"sync"
	"time"

	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed submission store used by tests and local
// runs. It enforces the same (practitioner, catalog) uniqueness the SQL
// schema does, so the bulk writer's conflict semantics hold here too.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.SubmissionID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.SubmissionID]Record)}
}

// Put inserts or replaces a record without uniqueness checks. Test seeding
// helper; the write paths go through Insert/Update.
func (s *InMemoryStore) Put(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
}

// Insert adds a new record, returning sentinel.ErrConflict when the
// (practitioner, catalog) pair already exists.
func (s *InMemoryStore) Insert(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.CatalogID != nil {
		for _, existing := range s.records {
			if existing.CatalogID != nil &&
				*existing.CatalogID == *record.CatalogID &&
				existing.PractitionerID == record.PractitionerID {
				return sentinel.ErrConflict
			}
		}
	}
	s.records[record.ID] = record
	return nil
}

// Remove drops a record if present. The memory bulk backend uses it to undo
// inserts when a batched write fails partway.
func (s *InMemoryStore) Remove(submissionID id.SubmissionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, submissionID)
}

func (s *InMemoryStore) FindByID(_ context.Context, submissionID id.SubmissionID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (s *InMemoryStore) ListByPractitionerInWindow(_ context.Context, practitionerID id.PractitionerID, from, to time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matching []*Record
	for _, record := range s.records {
		if record.PractitionerID != practitionerID {
			continue
		}
		if record.ActivityDate.Before(from) || record.ActivityDate.After(to) {
			continue
		}
		copied := record
		matching = append(matching, &copied)
	}
	return matching, nil
}

func (s *InMemoryStore) Update(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = *record
	return nil
}

func (s *InMemoryStore) ExistingForCatalog(_ context.Context, catalogID id.CatalogID, practitionerIDs []id.PractitionerID) ([]id.PractitionerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[id.PractitionerID]struct{}, len(practitionerIDs))
	for _, practitionerID := range practitionerIDs {
		wanted[practitionerID] = struct{}{}
	}
	var existing []id.PractitionerID
	seen := make(map[id.PractitionerID]struct{})
	for _, record := range s.records {
		if record.CatalogID == nil || *record.CatalogID != catalogID {
			continue
		}
		if _, ok := wanted[record.PractitionerID]; !ok {
			continue
		}
		if _, dup := seen[record.PractitionerID]; dup {
			continue
		}
		seen[record.PractitionerID] = struct{}{}
		existing = append(existing, record.PractitionerID)
	}
	return existing, nil
}
