package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/platform/sentinel"
)

// PostgresStore reads catalog entries from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, name, category, conversion_rate, min_hours, max_hours, requires_evidence`

func (s *PostgresStore) FindByID(ctx context.Context, catalogID id.CatalogID) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM activity_catalog WHERE id = $1`,
		uuid.UUID(catalogID))
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find catalog entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, catalogIDs []id.CatalogID) (map[id.CatalogID]*Entry, error) {
	found := make(map[id.CatalogID]*Entry, len(catalogIDs))
	if len(catalogIDs) == 0 {
		return found, nil
	}
	raw := make([]uuid.UUID, len(catalogIDs))
	for i, catalogID := range catalogIDs {
		raw[i] = uuid.UUID(catalogID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM activity_catalog WHERE id = ANY($1)`,
		pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("batch find catalog entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		found[entry.ID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return found, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry       Entry
		rawID       uuid.UUID
		rawCategory string
	)
	if err := row.Scan(&rawID, &entry.Name, &rawCategory, &entry.ConversionRate,
		&entry.MinHours, &entry.MaxHours, &entry.RequiresEvidence); err != nil {
		return nil, err
	}
	category, err := ParseCategory(rawCategory)
	if err != nil {
		return nil, err
	}
	entry.ID = id.CatalogID(rawID)
	entry.Category = category
	return &entry, nil
}
