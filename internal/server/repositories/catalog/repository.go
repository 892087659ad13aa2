package catalog

import (
	"context"

	"github.com/provenia/provenia/internal/server/models"
)

// Repository persists catalog entries. Implementations must enforce the
// one-active-entry-per-(contentHash, ownerId) invariant at the storage
// layer, so concurrent identical uploads race safely.
type Repository interface {
	// Create inserts a new active entry. When another active entry already
	// holds the same (contentHash, ownerId), Create returns
	// common.ErrDuplicateEntry.
	Create(ctx context.Context, entry *models.CatalogEntry) error

	// FindActive returns the active entry for (contentHash, ownerID), or
	// common.ErrNotFound.
	FindActive(ctx context.Context, contentHash, ownerID string) (*models.CatalogEntry, error)

	// GetByID returns the owner's entry with the given id (active or not),
	// or common.ErrNotFound.
	GetByID(ctx context.Context, ownerID, id string) (*models.CatalogEntry, error)

	// ListByOwner returns the owner's active entries, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.CatalogEntry, error)

	// Deactivate soft-deletes the owner's entry and returns it as it was,
	// or common.ErrNotFound when no active entry matches.
	Deactivate(ctx context.Context, ownerID, id string) (*models.CatalogEntry, error)
}
