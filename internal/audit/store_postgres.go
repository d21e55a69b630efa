package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	txcontext "cpdtrack/pkg/platform/tx"
)

// PostgresStore appends audit events to a plain audit_events table. It joins
// a caller-owned transaction when one is present in the context, so audit
// rows of a bulk write commit or roll back with the write itself.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var details []byte
	if len(event.Details) > 0 {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = encoded
	}

	var recordID any
	if event.RecordID != nil {
		recordID = uuid.UUID(*event.RecordID)
	}
	var actorID any
	if !event.ActorID.IsNil() {
		actorID = uuid.UUID(event.ActorID)
	}

	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (id, action, record_id, actor_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), event.Action, recordID, actorID, details, event.IPAddress, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
