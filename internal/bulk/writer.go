package bulk

import (
	"context"
	"fmt"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/platform/metrics"
	"cpdtrack/internal/submission"
	id "cpdtrack/pkg/domain"
	dErrors "cpdtrack/pkg/domain-errors"
	"cpdtrack/pkg/requestcontext"
)

// defaultBatchSize bounds the row count of one multi-row insert statement.
// Batching exists purely to keep a single statement's parameter count
// bounded; atomicity is always whole-operation.
const defaultBatchSize = 500

// TxRunner provides the transactional boundary for a bulk write.
// Implementations wrap a database transaction or, in-memory, a coarse lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Inserter performs one duplicate-tolerant multi-row insert and returns only
// the rows actually inserted. Rows whose (practitioner, catalog) pair already
// exists are silently skipped by the store's uniqueness constraint.
type Inserter interface {
	InsertBatch(ctx context.Context, records []submission.Record) ([]submission.Record, error)
}

// Result reports a bulk write: what was inserted, which practitioners were
// skipped as duplicates, and the advisory pre-check's findings. For drafts
// carrying a catalog id, len(Inserted with catalog) + len(Conflicts) equals
// the number of such drafts.
type Result struct {
	Inserted []submission.Record
	// Conflicts are not errors: the practitioner already had a submission
	// for the catalog entry, so the draft was skipped.
	Conflicts []id.PractitionerID
	// AnticipatedDuplicates is the advisory pre-check outcome, surfaced so
	// callers can warn before committing to a write.
	AnticipatedDuplicates []id.PractitionerID
}

// Writer turns resolved drafts into submission rows.
type Writer struct {
	txRunner    TxRunner
	inserter    Inserter
	submissions submission.Store
	audit       *audit.Service
	metrics     *metrics.Metrics
	batchSize   int
}

func NewWriter(txRunner TxRunner, inserter Inserter, submissions submission.Store, auditSvc *audit.Service, m *metrics.Metrics, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Writer{
		txRunner:    txRunner,
		inserter:    inserter,
		submissions: submissions,
		audit:       auditSvc,
		metrics:     m,
		batchSize:   batchSize,
	}
}

// Create writes all drafts inside one transaction, batching the inserts.
// Batches execute sequentially; any unexpected store error rolls the whole
// operation back — there are no partial commits across batches. Duplicate
// (practitioner, catalog) pairs are skipped by the store's uniqueness
// constraint and reported as conflicts inside a successfully committed
// transaction.
func (w *Writer) Create(ctx context.Context, drafts []Draft) (*Result, error) {
	if len(drafts) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "bulk submission requires at least one draft")
	}

	result := &Result{}

	// Advisory pre-check: which targets already have a submission for this
	// catalog entry. Purely informational; the constraint is authoritative.
	if catalogID := drafts[0].Template.CatalogID; catalogID != nil {
		targets := make([]id.PractitionerID, len(drafts))
		for i, draft := range drafts {
			targets[i] = draft.PractitionerID
		}
		existing, err := w.submissions.ExistingForCatalog(ctx, *catalogID, targets)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "duplicate pre-check")
		}
		result.AnticipatedDuplicates = existing
	}

	now := requestcontext.Now(ctx)
	records := make([]submission.Record, len(drafts))
	for i, draft := range drafts {
		records[i] = draft.record(now)
	}

	err := w.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		for start := 0; start < len(records); start += w.batchSize {
			end := start + w.batchSize
			if end > len(records) {
				end = len(records)
			}
			inserted, err := w.inserter.InsertBatch(txCtx, records[start:end])
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal,
					fmt.Sprintf("bulk insert batch %d", start/w.batchSize))
			}
			result.Inserted = append(result.Inserted, inserted...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A draft with a catalog id that did not come back inserted was skipped
	// by the uniqueness constraint: a conflict, not a failure.
	insertedPractitioners := make(map[id.PractitionerID]struct{}, len(result.Inserted))
	for _, record := range result.Inserted {
		insertedPractitioners[record.PractitionerID] = struct{}{}
	}
	for _, draft := range drafts {
		if draft.Template.CatalogID == nil {
			continue
		}
		if _, ok := insertedPractitioners[draft.PractitionerID]; !ok {
			result.Conflicts = append(result.Conflicts, draft.PractitionerID)
		}
	}

	w.metrics.RecordBulkOutcome(len(result.Inserted), len(result.Conflicts))
	if w.audit != nil {
		w.audit.Emit(ctx, audit.Event{
			Action: audit.ActionBulkImport,
			Details: map[string]any{
				"type":         "bulk_submission",
				"totalCount":   len(drafts),
				"successCount": len(result.Inserted),
				"errorCount":   len(result.Conflicts),
			},
		})
	}
	return result, nil
}
