package bulk

import (
	"context"
	"errors"
	"sync"

	"cpdtrack/internal/submission"
	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/platform/sentinel"
)

// MemoryBackend backs the writer with the in-memory submission store. A
// coarse lock serializes writers, and an undo log of inserted ids gives a
// failed multi-batch write the same all-or-nothing outcome a SQL transaction
// does. Conflict semantics mirror the SQL uniqueness constraint because the
// memory store enforces the same pair.
type MemoryBackend struct {
	mu       sync.Mutex
	store    *submission.InMemoryStore
	inserted []id.SubmissionID
	// failAfter, when >= 0, makes InsertBatch fail once that many batches
	// have succeeded. Test hook for rollback behavior.
	failAfter int
	batches   int
}

func NewMemoryBackend(store *submission.InMemoryStore) *MemoryBackend {
	return &MemoryBackend{store: store, failAfter: -1}
}

// FailAfterBatches arms the failure hook.
func (b *MemoryBackend) FailAfterBatches(n int) { b.failAfter = n }

func (b *MemoryBackend) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = 0
	b.inserted = b.inserted[:0]
	if err := fn(ctx); err != nil {
		for _, submissionID := range b.inserted {
			b.store.Remove(submissionID)
		}
		return err
	}
	return nil
}

func (b *MemoryBackend) InsertBatch(ctx context.Context, records []submission.Record) ([]submission.Record, error) {
	if b.failAfter >= 0 && b.batches >= b.failAfter {
		return nil, errors.New("simulated store failure")
	}
	b.batches++

	var inserted []submission.Record
	for _, record := range records {
		err := b.store.Insert(ctx, record)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		b.inserted = append(b.inserted, record.ID)
		inserted = append(inserted, record)
	}
	return inserted, nil
}
