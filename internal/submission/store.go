package submission

import (
	"context"
	"time"

	id "cpdtrack/pkg/domain"
)

// Store persists submission records.
type Store interface {
	// FindByID returns the record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*Record, error)
	// ListByPractitionerInWindow returns the practitioner's submissions whose
	// activity date falls in [from, to], any status.
	ListByPractitionerInWindow(ctx context.Context, practitionerID id.PractitionerID, from, to time.Time) ([]*Record, error)
	// Update persists the mutable fields of an existing record.
	Update(ctx context.Context, record *Record) error
	// ExistingForCatalog reports which of the given practitioners already
	// have a submission for the catalog entry.
	ExistingForCatalog(ctx context.Context, catalogID id.CatalogID, practitionerIDs []id.PractitionerID) ([]id.PractitionerID, error)
}
