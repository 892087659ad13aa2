// Package models defines server-side data models persisted in the database.
package models

import "time"

// CatalogEntry is the durable metadata record describing one ingested asset.
// The bytes themselves live in the object store under ContentID; the entry
// is soft-deleted (IsActive=false) on removal so content identifiers remain
// auditable.
//
// At most one active entry exists per (ContentHash, OwnerID) pair; the
// database enforces this with a partial unique index.
type CatalogEntry struct {
	// ID is the server-assigned entry identifier (uuid).
	ID string
	// OwnerID is the authenticated owner the entry belongs to.
	OwnerID string
	// ContentHash is the hex sha256 digest of the exact byte sequence,
	// independent of filename. It is the dedup key.
	ContentHash string
	// ContentID is the object-store identifier of the canonical bytes.
	ContentID string
	// ThumbnailCID references the derived thumbnail object, "" when absent.
	ThumbnailCID string
	// Category is the resolved taxonomy category (images, documents, ...).
	Category string
	// MimeType is the resolved content type.
	MimeType string
	// SizeBytes is the canonical object size.
	SizeBytes int64
	// Public controls marketplace visibility.
	Public bool
	// IsActive is false once the entry has been soft-deleted.
	IsActive bool

	CreatedAt time.Time
}
