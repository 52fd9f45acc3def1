// Package cache stores rendered artifacts keyed by content hash.
//
// Rendering a graph through Graphviz is the only expensive step in thoughtgraph,
// and its output depends solely on the input bytes, the field mapping and the
// render options. Keys are therefore derived from those inputs, so a cached
// artifact can never be stale.
//
// Three backends implement [Cache]:
//   - [FileCache]: files under ~/.cache/thoughtgraph, used by the CLI
//   - [MemoryCache]: process-local map, used by the server
//   - [NullCache]: stores nothing (--no-cache)
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long rendered artifacts are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key-value store with optional expiration.
type Cache interface {
	// Get returns the cached value and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey generates a key for a rendered artifact of a document.
	ArtifactKey(documentHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds everything besides the document that affects rendered output.
type ArtifactKeyOpts struct {
	Format     string `json:"format"`
	Detailed   bool   `json:"detailed,omitempty"`
	FieldsHash string `json:"fields,omitempty"`
	HideGroup  string `json:"hide_group,omitempty"`
}

// DefaultKeyer builds keys of the form "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", documentHash, opts)
}
