package practitioner

import (
	"context"

	id "cpdtrack/pkg/domain"
)

// Store is the read-only practitioner lookup collaborators implement.
type Store interface {
	// FindByIDs batch-resolves practitioners. Ids without a row are simply
	// absent from the result; callers decide whether absence is an error.
	FindByIDs(ctx context.Context, practitionerIDs []id.PractitionerID) ([]*Practitioner, error)
	// ListFiltered returns one page of practitioners matching filter, ordered
	// by (full_name, id) so sequential paging is stable.
	ListFiltered(ctx context.Context, filter Filter, limit, offset int) ([]*Practitioner, error)
}
