package practitioner

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "cpdtrack/pkg/domain"
)

// PostgresStore reads practitioners from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const practitionerColumns = `id, unit_id, full_name, title, department, work_status, license_issued_at`

func (s *PostgresStore) FindByIDs(ctx context.Context, practitionerIDs []id.PractitionerID) ([]*Practitioner, error) {
	if len(practitionerIDs) == 0 {
		return nil, nil
	}
	raw := make([]uuid.UUID, len(practitionerIDs))
	for i, practitionerID := range practitionerIDs {
		raw[i] = uuid.UUID(practitionerID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+practitionerColumns+` FROM practitioners WHERE id = ANY($1)`,
		pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("batch find practitioners: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) ListFiltered(ctx context.Context, filter Filter, limit, offset int) ([]*Practitioner, error) {
	var (
		clauses []string
		args    []any
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UnitID != nil {
		clauses = append(clauses, "unit_id = "+arg(uuid.UUID(*filter.UnitID)))
	}
	if filter.WorkStatus != "" {
		clauses = append(clauses, "work_status = "+arg(string(filter.WorkStatus)))
	}
	if filter.Title != "" {
		clauses = append(clauses, "title = "+arg(filter.Title))
	}
	if filter.Department != "" {
		clauses = append(clauses, "department = "+arg(filter.Department))
	}
	if filter.Search != "" {
		clauses = append(clauses, "full_name ILIKE "+arg("%"+escapeLike(filter.Search)+"%"))
	}

	query := `SELECT ` + practitionerColumns + ` FROM practitioners`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY full_name, id LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list practitioners: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// escapeLike neutralizes LIKE wildcards so a search term matches literally,
// the same way the memory store's substring match does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func collect(rows *sql.Rows) ([]*Practitioner, error) {
	var found []*Practitioner
	for rows.Next() {
		var (
			p             Practitioner
			rawID         uuid.UUID
			rawUnitID     uuid.UUID
			rawWorkStatus string
		)
		if err := rows.Scan(&rawID, &rawUnitID, &p.FullName, &p.Title,
			&p.Department, &rawWorkStatus, &p.LicenseIssuedAt); err != nil {
			return nil, fmt.Errorf("scan practitioner: %w", err)
		}
		p.ID = id.PractitionerID(rawID)
		p.UnitID = id.UnitID(rawUnitID)
		p.WorkStatus = WorkStatus(rawWorkStatus)
		found = append(found, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate practitioners: %w", err)
	}
	return found, nil
}
