// Package objectstore defines the thin client contract the ingestion core
// requires from a content-addressable store, plus display-URL templating.
// Backends live in subpackages; the core only sees this interface.
package objectstore

import (
	"context"
	"io"
	"strings"
)

// StoredObject describes one successfully uploaded object.
type StoredObject struct {
	// ContentID is the store-assigned, content-derived identifier.
	ContentID string
	// SizeBytes is the stored size.
	SizeBytes int64
	// Pinned is true once a pin call has succeeded for this object.
	Pinned bool
}

// Store is the operations surface of a content-addressable object store.
// All calls carry a bounded timeout and perform no internal retries; a
// timeout surfaces as an ordinary error. Under a content-addressed store
// every operation is idempotent from the caller's perspective: adding
// identical bytes twice yields the same ContentID.
type Store interface {
	// Add uploads the bytes from r under a display name and returns the
	// resulting object. Name is a hint only; identity comes from content.
	Add(ctx context.Context, r io.Reader, name string) (*StoredObject, error)

	// Cat fetches the bytes of a stored object. The caller closes the
	// returned reader.
	Cat(ctx context.Context, contentID string) (io.ReadCloser, error)

	// Pin marks the object as must-retain.
	Pin(ctx context.Context, contentID string) error

	// Unpin releases the retain mark. Best-effort on logical deletion.
	Unpin(ctx context.Context, contentID string) error
}

// GatewayURL renders a public display URL for a content identifier. Bases
// containing a "{cid}" placeholder are templated; otherwise the id is
// appended in gateway path form. Pure string work, no network.
func GatewayURL(base, contentID string) string {
	if base == "" || contentID == "" {
		return ""
	}
	if strings.Contains(base, "{cid}") {
		return strings.ReplaceAll(base, "{cid}", contentID)
	}
	return strings.TrimRight(base, "/") + "/ipfs/" + contentID
}
