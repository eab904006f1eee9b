// Package store archives finished runs so the HTTP server can list them and
// render their trees later.
//
// Two backends are provided:
//
//   - [MemoryStore]: process-local, used by the CLI and in tests
//   - [MongoStore]: MongoDB collection keyed by run id
//
// Both return an error matching [ErrNotFound] (and carrying
// errors.ErrCodeRunNotFound) for unknown ids.
package store

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/problem"
)

// ErrNotFound is wrapped by Get when no run has the requested id.
var ErrNotFound = stderrors.New("run not found")

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Store persists run results.
type Store interface {
	// Save inserts or replaces r, keyed by r.ID.
	Save(ctx context.Context, r *problem.Result) error

	// Get returns the run with the given id.
	Get(ctx context.Context, id string) (*problem.Result, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]problem.Summary, error)

	// Close releases backend resources.
	Close() error
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodeRunNotFound, ErrNotFound, "run %q", id)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
