package bulk

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cpdtrack/internal/submission"
	txcontext "cpdtrack/pkg/platform/tx"
)

// PostgresBackend gives the writer real transactions and the conflict-skipping
// batch insert. One unnest insert per batch keeps round trips at O(batches)
// instead of O(rows).
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, b.db, fn)
}

// InsertBatch inserts the batch in one statement. Rows hitting the
// (practitioner_id, catalog_id) uniqueness constraint are skipped, not
// errored; RETURNING tells us which rows actually landed.
func (b *PostgresBackend) InsertBatch(ctx context.Context, records []submission.Record) ([]submission.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var (
		ids             = make([]uuid.UUID, len(records))
		practitionerIDs = make([]uuid.UUID, len(records))
		catalogIDs      = make([]sql.NullString, len(records))
		activityNames   = make([]string, len(records))
		roles           = make([]string, len(records))
		activityDates   = make([]time.Time, len(records))
		hours           = make([]sql.NullFloat64, len(records))
		credits         = make([]sql.NullFloat64, len(records))
		evidenceURLs    = make([]sql.NullString, len(records))
		statuses        = make([]string, len(records))
		comments        = make([]string, len(records))
		submitters      = make([]uuid.UUID, len(records))
		methods         = make([]string, len(records))
		createdAts      = make([]time.Time, len(records))
	)
	for i, record := range records {
		ids[i] = uuid.UUID(record.ID)
		practitionerIDs[i] = uuid.UUID(record.PractitionerID)
		if record.CatalogID != nil {
			catalogIDs[i] = sql.NullString{String: record.CatalogID.String(), Valid: true}
		}
		activityNames[i] = record.ActivityName
		roles[i] = record.Role
		activityDates[i] = record.ActivityDate
		if record.Hours != nil {
			hours[i] = sql.NullFloat64{Float64: *record.Hours, Valid: true}
		}
		if record.Credits != nil {
			credits[i] = sql.NullFloat64{Float64: *record.Credits, Valid: true}
		}
		if record.EvidenceURL != nil {
			evidenceURLs[i] = sql.NullString{String: *record.EvidenceURL, Valid: true}
		}
		statuses[i] = string(record.Status)
		comments[i] = record.Comment
		submitters[i] = uuid.UUID(record.SubmittedBy)
		methods[i] = string(record.CreationMethod)
		createdAts[i] = record.CreatedAt
	}

	rows, err := b.handle(ctx).QueryContext(ctx, `
		INSERT INTO submissions (id, practitioner_id, catalog_id, activity_name, role,
			activity_date, hours, credits, evidence_url, status, comment,
			submitted_by, creation_method, created_at)
		SELECT * FROM unnest(
			$1::uuid[], $2::uuid[], $3::uuid[], $4::text[], $5::text[],
			$6::timestamptz[], $7::float8[], $8::float8[], $9::text[], $10::text[],
			$11::text[], $12::uuid[], $13::text[], $14::timestamptz[])
		ON CONFLICT (practitioner_id, catalog_id) WHERE catalog_id IS NOT NULL
			DO NOTHING
		RETURNING `+submission.RecordColumns,
		pq.Array(ids), pq.Array(practitionerIDs), pq.Array(catalogIDs),
		pq.Array(activityNames), pq.Array(roles), pq.Array(activityDates),
		pq.Array(hours), pq.Array(credits), pq.Array(evidenceURLs),
		pq.Array(statuses), pq.Array(comments), pq.Array(submitters),
		pq.Array(methods), pq.Array(createdAts))
	if err != nil {
		return nil, fmt.Errorf("insert submission batch: %w", err)
	}
	defer rows.Close()

	var inserted []submission.Record
	for rows.Next() {
		record, err := submission.ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inserted submission: %w", err)
		}
		inserted = append(inserted, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inserted submissions: %w", err)
	}
	return inserted, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (b *PostgresBackend) handle(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return b.db
}
