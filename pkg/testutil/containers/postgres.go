//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the production migrations closely enough for store tests.
// The partial unique index is what the bulk writer's ON CONFLICT targets.
const schema = `
CREATE TABLE practitioners (
	id UUID PRIMARY KEY,
	unit_id UUID NOT NULL,
	full_name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	work_status TEXT NOT NULL,
	license_issued_at TIMESTAMPTZ
);

CREATE TABLE activity_catalog (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	conversion_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	min_hours DOUBLE PRECISION,
	max_hours DOUBLE PRECISION,
	requires_evidence BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE credit_rules (
	id UUID PRIMARY KEY,
	required_total DOUBLE PRECISION NOT NULL,
	cycle_years INT NOT NULL,
	category_caps JSONB NOT NULL DEFAULT '{}',
	effective_from TIMESTAMPTZ,
	effective_to TIMESTAMPTZ,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE submissions (
	id UUID PRIMARY KEY,
	practitioner_id UUID NOT NULL,
	catalog_id UUID,
	activity_name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	activity_date TIMESTAMPTZ NOT NULL,
	hours DOUBLE PRECISION,
	credits DOUBLE PRECISION,
	evidence_url TEXT,
	status TEXT NOT NULL,
	approved_by UUID,
	approved_at TIMESTAMPTZ,
	comment TEXT NOT NULL DEFAULT '',
	submitted_by UUID NOT NULL,
	creation_method TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX submissions_practitioner_catalog_uq
	ON submissions (practitioner_id, catalog_id)
	WHERE catalog_id IS NOT NULL;

CREATE TABLE audit_events (
	id UUID PRIMARY KEY,
	action TEXT NOT NULL,
	record_id UUID,
	actor_id UUID,
	details JSONB,
	ip_address TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cpdtrack_test"),
		tcpostgres.WithUsername("cpdtrack"),
		tcpostgres.WithPassword("cpdtrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// No t.Cleanup here: the container is owned by the singleton Manager and
	// shared across suites. Ryuk reaps it when the test process exits.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables clears all domain tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE practitioners, activity_catalog, credit_rules, submissions, audit_events`)
	return err
}
