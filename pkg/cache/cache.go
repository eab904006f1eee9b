// Package cache stores enumeration results and rendered trees between runs.
//
// Three backends share the [Cache] interface:
//
//   - [FileCache]: one JSON file per key under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// Keys come from a [Keyer] so that the server can scope them per tenant with
// [ScopedKeyer] while the CLI uses [DefaultKeyer] directly.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLResult applies to enumeration results. Results are a pure function
	// of the problem and options, so the TTL only bounds disk usage.
	TTLResult = 7 * 24 * time.Hour

	// TTLRender applies to rendered DOT/SVG artifacts.
	TTLRender = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// ResultKeyOpts are the search options that change an enumeration result.
type ResultKeyOpts struct {
	MaxDepth      int    `json:"max_depth"`
	L1Quota       int    `json:"l1_quota"`
	Escalate      bool   `json:"escalate"`
	Policy        string `json:"policy,omitempty"`
	MaxCandidates int    `json:"max_candidates"`
}

// RenderKeyOpts identify one rendered tree of a stored run.
type RenderKeyOpts struct {
	Tree   int    `json:"tree"`
	Format string `json:"format"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey keys an enumeration result by problem hash and options.
	ResultKey(problemHash string, opts ResultKeyOpts) string
	// RenderKey keys a rendered tree of a run.
	RenderKey(runID string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey implements [Keyer].
func (DefaultKeyer) ResultKey(problemHash string, opts ResultKeyOpts) string {
	return hashKey("result", problemHash, opts)
}

// RenderKey implements [Keyer].
func (DefaultKeyer) RenderKey(runID string, opts RenderKeyOpts) string {
	return hashKey("render", runID, opts)
}
