// Package cache stores layout results and rendered artifacts between runs.
//
// # Backends
//
//   - [NullCache]: never stores anything (--no-cache)
//   - [FileCache]: one JSON file per key under the user cache directory (CLI)
//   - [RedisCache]: a shared Redis instance (serve)
//
// # Keys
//
// A [Keyer] derives keys from content hashes. Layout keys cover the document
// and every grid option in effect, so any change to either misses:
//
//	docHash := cache.Hash(html)
//	key := keyer.LayoutKey(docHash, cache.LayoutKeyOpts{
//	    Kind:        "masonry",
//	    Fingerprint: kinds.Fingerprint(g),
//	    Width:       1200,
//	})
//
// Artifact keys extend a layout hash with the output format and its options.
package cache

import (
	"context"
	"strings"
	"time"
)

// TTLs for cached entries.
const (
	// LayoutTTL is how long a grid status stays valid.
	LayoutTTL = 7 * 24 * time.Hour

	// ArtifactTTL is how long rendered outputs stay valid.
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the data for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a laid out grid status.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout inputs besides the document itself.
type LayoutKeyOpts struct {
	Kind        string  `json:"kind"`
	Fingerprint string  `json:"fingerprint"`
	Selector    string  `json:"selector,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// ArtifactKeyOpts are the render inputs besides the layout.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Labels  bool    `json:"labels,omitempty"`
	Palette string  `json:"palette,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the document hash with the layout options.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey hashes the layout hash with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// KeyType returns the type segment of a key built by [DefaultKeyer], with or
// without a scope prefix.
func KeyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
