//go:build integration

package bulk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cpdtrack/internal/audit"
	"cpdtrack/internal/bulk"
	"cpdtrack/internal/platform/logger"
	"cpdtrack/internal/submission"
	id "cpdtrack/pkg/domain"
	"cpdtrack/pkg/testutil/containers"
)

type PostgresBackendSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *submission.PostgresStore
	writer   *bulk.Writer
}

func TestPostgresBackendSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBackendSuite))
}

func (s *PostgresBackendSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = submission.NewPostgresStore(s.postgres.DB)
	backend := bulk.NewPostgresBackend(s.postgres.DB)
	auditSvc := audit.NewService(audit.NewPostgresStore(s.postgres.DB), logger.New("error"))
	s.writer = bulk.NewWriter(backend, backend, s.store, auditSvc, nil, 100)
}

func (s *PostgresBackendSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background()))
}

func (s *PostgresBackendSuite) template(catalogID *id.CatalogID) bulk.Template {
	return bulk.Template{
		CatalogID:    catalogID,
		ActivityName: "hospital infection control workshop",
		Role:         "attendee",
		ActivityDate: time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
		SubmittedBy:  id.NewUserID(),
	}
}

func (s *PostgresBackendSuite) TestInsertThenRereadRoundTrip() {
	ctx := context.Background()
	catalogID := id.NewCatalogID()
	target := id.NewPractitionerID()

	result, err := s.writer.Create(ctx, bulk.BuildDrafts(s.template(&catalogID), []id.PractitionerID{target}))
	s.Require().NoError(err)
	s.Require().Len(result.Inserted, 1)

	stored, err := s.store.FindByID(ctx, result.Inserted[0].ID)
	s.Require().NoError(err)
	s.Equal(target, stored.PractitionerID)
	s.Require().NotNil(stored.CatalogID)
	s.Equal(catalogID, *stored.CatalogID)
	s.Equal(submission.StatusPending, stored.Status)
	s.Equal(submission.CreatedByBulk, stored.CreationMethod)
}

func (s *PostgresBackendSuite) TestConflictingPairSkippedNotErrored() {
	ctx := context.Background()
	catalogID := id.NewCatalogID()
	kept := id.NewPractitionerID()
	duplicated := id.NewPractitionerID()

	first, err := s.writer.Create(ctx, bulk.BuildDrafts(s.template(&catalogID), []id.PractitionerID{duplicated}))
	s.Require().NoError(err)
	s.Require().Len(first.Inserted, 1)

	second, err := s.writer.Create(ctx, bulk.BuildDrafts(s.template(&catalogID), []id.PractitionerID{kept, duplicated}))
	s.Require().NoError(err)

	s.Len(second.Inserted, 1)
	s.Equal(kept, second.Inserted[0].PractitionerID)
	s.Equal([]id.PractitionerID{duplicated}, second.Conflicts)
	s.Equal([]id.PractitionerID{duplicated}, second.AnticipatedDuplicates)
}

func (s *PostgresBackendSuite) TestNullCatalogRowsNeverConflict() {
	ctx := context.Background()
	target := id.NewPractitionerID()
	drafts := bulk.BuildDrafts(s.template(nil), []id.PractitionerID{target})

	first, err := s.writer.Create(ctx, drafts)
	s.Require().NoError(err)
	s.Len(first.Inserted, 1)

	second, err := s.writer.Create(ctx, drafts)
	s.Require().NoError(err)
	s.Len(second.Inserted, 1)
	s.Empty(second.Conflicts)
}

func (s *PostgresBackendSuite) TestFailedTxRollsBackEarlierBatches() {
	ctx := context.Background()
	catalogID := id.NewCatalogID()
	targets := []id.PractitionerID{id.NewPractitionerID(), id.NewPractitionerID()}
	backend := bulk.NewPostgresBackend(s.postgres.DB)

	records := make([]submission.Record, len(targets))
	for i, target := range targets {
		records[i] = submission.Record{
			ID:             id.NewSubmissionID(),
			PractitionerID: target,
			CatalogID:      &catalogID,
			ActivityName:   "rolled back workshop",
			ActivityDate:   time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
			Status:         submission.StatusPending,
			SubmittedBy:    id.NewUserID(),
			CreationMethod: submission.CreatedByBulk,
			CreatedAt:      time.Now(),
		}
	}

	err := backend.RunInTx(ctx, func(txCtx context.Context) error {
		inserted, err := backend.InsertBatch(txCtx, records[:1])
		s.Require().NoError(err)
		s.Require().Len(inserted, 1)
		return errors.New("second batch failed")
	})
	s.Require().Error(err)

	remaining, err := s.store.ExistingForCatalog(ctx, catalogID, targets)
	s.Require().NoError(err)
	s.Empty(remaining)
}

func (s *PostgresBackendSuite) TestLargeCohortSpansBatches() {
	ctx := context.Background()
	catalogID := id.NewCatalogID()
	targets := make([]id.PractitionerID, 250)
	for i := range targets {
		targets[i] = id.NewPractitionerID()
	}

	result, err := s.writer.Create(ctx, bulk.BuildDrafts(s.template(&catalogID), targets))
	s.Require().NoError(err)
	s.Len(result.Inserted, 250)
	s.Empty(result.Conflicts)
}
