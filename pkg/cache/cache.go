// Package cache stores parsed documents and rendered artifacts between runs.
//
// Two layers are cached, each keyed by a content hash so a changed input
// never hits a stale entry:
//
//   - documents: the rectangles parsed from a markup source and filter
//   - artifacts: a rendered frame (svg, png, json) of a snapshot
//
// Backends:
//
//   - [NullCache]: never stores anything (--no-cache)
//   - [FileCache]: JSON entry files under the user cache directory
//   - [RedisCache]: a shared Redis instance for the HTTP server
//
// Keys come from a [Keyer]. [ScopedKeyer] prefixes every key so several
// servers or users can share one backend.
package cache

import (
	"context"
	"time"
)

// Cache is the byte store behind the pipeline.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes.
const (
	TTLDocument = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// DocumentKeyOpts holds the filter settings that change a parse result.
type DocumentKeyOpts struct {
	Active     string `json:"active,omitempty"`
	Background string   `json:"background,omitempty"`
}

// ArtifactKeyOpts holds the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
	Panel  bool    `json:"panel,omitempty"`
	Groups bool    `json:"groups,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	DocumentKey(sourceHash string, opts DocumentKeyOpts) string
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the inputs of each layer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey returns "doc:<sha256>".
func (DefaultKeyer) DocumentKey(sourceHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", sourceHash, opts)
}

// ArtifactKey returns "artifact:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, snapshotHash, opts)
}
