package services

import (
	"context"

	"github.com/provenia/provenia/internal/logging"
	"github.com/provenia/provenia/internal/objectstore"
	"github.com/provenia/provenia/internal/server/models"
	"github.com/provenia/provenia/internal/server/repositories/catalog"
)

// CatalogService serves the read side of the catalog and logical deletion.
type CatalogService struct {
	repo        catalog.Repository
	store       objectstore.Store
	dedup       *DedupChecker
	gatewayBase string
	logger      logging.Logger
}

func NewCatalogService(repo catalog.Repository, store objectstore.Store, dedup *DedupChecker, gatewayBase string, logger logging.Logger) *CatalogService {
	return &CatalogService{
		repo:        repo,
		store:       store,
		dedup:       dedup,
		gatewayBase: gatewayBase,
		logger:      logger,
	}
}

// List returns the owner's active entries, newest first.
func (s *CatalogService) List(ctx context.Context, ownerID string) ([]*models.CatalogEntry, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get returns one of the owner's entries by id.
func (s *CatalogService) Get(ctx context.Context, ownerID, id string) (*models.CatalogEntry, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// EntryURL renders the public gateway URL for an entry's canonical bytes.
func (s *CatalogService) EntryURL(entry *models.CatalogEntry) string {
	return objectstore.GatewayURL(s.gatewayBase, entry.ContentID)
}

// Delete soft-deletes the owner's entry and releases the store pin.
// Unpinning is best-effort: its failure is logged but never blocks the
// logical deletion, which has already happened by then. The entry row
// stays behind inactive so the content identifier remains auditable.
func (s *CatalogService) Delete(ctx context.Context, ownerID, id string) (*models.CatalogEntry, error) {
	entry, err := s.repo.Deactivate(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	s.dedup.Forget(entry.ContentHash, entry.OwnerID)

	if err := s.store.Unpin(ctx, entry.ContentID); err != nil {
		s.logger.Warn(ctx, "unpin failed after soft delete", "cid", entry.ContentID, "error", err)
	}

	s.logger.Info(ctx, "catalog entry deleted", "id", entry.ID, "owner_id", ownerID, "cid", entry.ContentID)
	return entry, nil
}
