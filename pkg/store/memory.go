package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/problem"
)

// MemoryStore keeps runs in a map. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]problem.Result
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]problem.Result)}
}

func (s *MemoryStore) Save(_ context.Context, r *problem.Result) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *r
	stored.Cached = false
	s.runs[r.ID] = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*problem.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, notFound(id)
	}
	return &r, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]problem.Summary, error) {
	s.mu.RLock()
	out := make([]problem.Summary, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.Summary())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b problem.Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
