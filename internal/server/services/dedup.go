package services

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/provenia/provenia/internal/common"
	"github.com/provenia/provenia/internal/server/models"
	"github.com/provenia/provenia/internal/server/repositories/catalog"
)

// DedupChecker answers whether an owner already has an active catalog entry
// for a content hash. Positive hits are cached briefly to spare the catalog
// on repeated identical uploads; misses are never cached, and the partial
// unique index in the database remains the authority either way.
type DedupChecker struct {
	repo  catalog.Repository
	cache *gocache.Cache
}

func NewDedupChecker(repo catalog.Repository) *DedupChecker {
	return &DedupChecker{
		repo:  repo,
		cache: gocache.New(time.Minute, 5*time.Minute),
	}
}

func dedupKey(contentHash, ownerID string) string {
	return contentHash + "|" + ownerID
}

// FindExisting returns the owner's active entry for contentHash, or nil
// when ingestion should proceed.
func (d *DedupChecker) FindExisting(ctx context.Context, contentHash, ownerID string) (*models.CatalogEntry, error) {
	k := dedupKey(contentHash, ownerID)

	if v, ok := d.cache.Get(k); ok {
		return v.(*models.CatalogEntry), nil
	}

	entry, err := d.repo.FindActive(ctx, contentHash, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	d.cache.Set(k, entry, gocache.DefaultExpiration)
	return entry, nil
}

// Remember primes the cache right after a successful insert.
func (d *DedupChecker) Remember(entry *models.CatalogEntry) {
	d.cache.Set(dedupKey(entry.ContentHash, entry.OwnerID), entry, gocache.DefaultExpiration)
}

// Forget drops a cached hit, used when an entry is soft-deleted.
func (d *DedupChecker) Forget(contentHash, ownerID string) {
	d.cache.Delete(dedupKey(contentHash, ownerID))
}
