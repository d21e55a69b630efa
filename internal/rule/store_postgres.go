package rule

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "cpdtrack/pkg/domain"
)

// PostgresStore reads credit rules from PostgreSQL. Category caps are stored
// as JSONB and validated into the typed map here, at the load boundary.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*CreditRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, required_total, cycle_years, category_caps, effective_from, effective_to, active, created_at
		FROM credit_rules
		WHERE active = TRUE
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var rules []*CreditRule
	for rows.Next() {
		var (
			r       CreditRule
			rawID   uuid.UUID
			rawCaps []byte
		)
		if err := rows.Scan(&rawID, &r.RequiredTotal, &r.CycleYears, &rawCaps,
			&r.EffectiveFrom, &r.EffectiveTo, &r.Active, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit rule: %w", err)
		}
		r.ID = id.RuleID(rawID)
		if len(rawCaps) > 0 {
			var untyped map[string]float64
			if err := json.Unmarshal(rawCaps, &untyped); err != nil {
				return nil, fmt.Errorf("decode category caps for rule %s: %w", r.ID, err)
			}
			caps, err := ValidateCaps(untyped)
			if err != nil {
				return nil, fmt.Errorf("validate category caps for rule %s: %w", r.ID, err)
			}
			r.CategoryCaps = caps
		}
		rules = append(rules, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit rules: %w", err)
	}
	return rules, nil
}
