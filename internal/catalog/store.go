package catalog

import (
	"context"

	id "cpdtrack/pkg/domain"
)

// Store is the read-only catalog lookup collaborators implement.
type Store interface {
	// FindByID returns the entry or sentinel.ErrNotFound.
	FindByID(ctx context.Context, catalogID id.CatalogID) (*Entry, error)
	// FindByIDs batch-resolves entries; ids without a row are simply absent
	// from the returned map.
	FindByIDs(ctx context.Context, catalogIDs []id.CatalogID) (map[id.CatalogID]*Entry, error)
}
