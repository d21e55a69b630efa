package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/platform/sentinel"
	txcontext "cpdtrack/pkg/platform/tx"
)

// PostgresStore persists submissions in PostgreSQL. The submissions table
// carries a uniqueness constraint over (practitioner_id, catalog_id) for
// non-null catalog ids; the bulk writer leans on it for duplicate prevention.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RecordColumns lists the submissions columns in the order ScanRecord
// expects. The bulk writer's RETURNING clause reuses it.
const RecordColumns = `id, practitioner_id, catalog_id, activity_name, role, activity_date,
	hours, credits, evidence_url, status, approved_by, approved_at, comment,
	submitted_by, creation_method, created_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) handle(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FindByID(ctx context.Context, submissionID id.SubmissionID) (*Record, error) {
	row := s.handle(ctx).QueryRowContext(ctx,
		`SELECT `+RecordColumns+` FROM submissions WHERE id = $1`,
		uuid.UUID(submissionID))
	record, err := ScanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByPractitionerInWindow(ctx context.Context, practitionerID id.PractitionerID, from, to time.Time) ([]*Record, error) {
	rows, err := s.handle(ctx).QueryContext(ctx, `
		SELECT `+RecordColumns+`
		FROM submissions
		WHERE practitioner_id = $1 AND activity_date BETWEEN $2 AND $3
		ORDER BY activity_date, id
	`, uuid.UUID(practitionerID), from, to)
	if err != nil {
		return nil, fmt.Errorf("list submissions in window: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Update(ctx context.Context, record *Record) error {
	var catalogID any
	if record.CatalogID != nil {
		catalogID = uuid.UUID(*record.CatalogID)
	}
	var approvedBy any
	if record.ApprovedBy != nil {
		approvedBy = uuid.UUID(*record.ApprovedBy)
	}
	result, err := s.handle(ctx).ExecContext(ctx, `
		UPDATE submissions
		SET catalog_id = $2, activity_name = $3, role = $4, activity_date = $5,
		    hours = $6, credits = $7, evidence_url = $8, status = $9,
		    approved_by = $10, approved_at = $11, comment = $12
		WHERE id = $1
	`, uuid.UUID(record.ID), catalogID, record.ActivityName, record.Role,
		record.ActivityDate, record.Hours, record.Credits, record.EvidenceURL,
		string(record.Status), approvedBy, record.ApprovedAt, record.Comment)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ExistingForCatalog(ctx context.Context, catalogID id.CatalogID, practitionerIDs []id.PractitionerID) ([]id.PractitionerID, error) {
	if len(practitionerIDs) == 0 {
		return nil, nil
	}
	raw := make([]uuid.UUID, len(practitionerIDs))
	for i, practitionerID := range practitionerIDs {
		raw[i] = uuid.UUID(practitionerID)
	}
	rows, err := s.handle(ctx).QueryContext(ctx, `
		SELECT DISTINCT practitioner_id
		FROM submissions
		WHERE catalog_id = $1 AND practitioner_id = ANY($2)
	`, uuid.UUID(catalogID), pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find existing submissions for catalog: %w", err)
	}
	defer rows.Close()

	var existing []id.PractitionerID
	for rows.Next() {
		var rawID uuid.UUID
		if err := rows.Scan(&rawID); err != nil {
			return nil, fmt.Errorf("scan existing practitioner id: %w", err)
		}
		existing = append(existing, id.PractitionerID(rawID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing practitioner ids: %w", err)
	}
	return existing, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanRecord reads one submission row in RecordColumns order. Shared with
// the bulk writer, whose RETURNING clause lists the same columns.
func ScanRecord(row rowScanner) (*Record, error) {
	var (
		record           Record
		rawID            uuid.UUID
		rawPractitioner  uuid.UUID
		rawCatalog       uuid.NullUUID
		rawStatus        string
		rawApprovedBy    uuid.NullUUID
		rawSubmittedBy   uuid.UUID
		rawCreationMeans string
	)
	if err := row.Scan(&rawID, &rawPractitioner, &rawCatalog, &record.ActivityName,
		&record.Role, &record.ActivityDate, &record.Hours, &record.Credits,
		&record.EvidenceURL, &rawStatus, &rawApprovedBy, &record.ApprovedAt,
		&record.Comment, &rawSubmittedBy, &rawCreationMeans, &record.CreatedAt); err != nil {
		return nil, err
	}
	record.ID = id.SubmissionID(rawID)
	record.PractitionerID = id.PractitionerID(rawPractitioner)
	if rawCatalog.Valid {
		catalogID := id.CatalogID(rawCatalog.UUID)
		record.CatalogID = &catalogID
	}
	record.Status = Status(rawStatus)
	if rawApprovedBy.Valid {
		approver := id.UserID(rawApprovedBy.UUID)
		record.ApprovedBy = &approver
	}
	record.SubmittedBy = id.UserID(rawSubmittedBy)
	record.CreationMethod = CreationMethod(rawCreationMeans)
	return &record, nil
}
