package tree

import (
	"errors"
	"fmt"

	"github.com/matzehuels/supportree/pkg/core/xjunction"
)

// ErrSetMismatch is returned by [Validate] when the junction set was built for
// a different number of regions than the tree spans.
var ErrSetMismatch = errors.New("junction set does not match tree size")

// Resolution records how one junction was explained.
type Resolution struct {
	Junction int              `json:"junction"`
	Config   xjunction.Config `json:"config"`
	Index    int              `json:"index"`  // position among the canonical configs
	Direct   bool             `json:"direct"` // both edges present, no derivation
}

// Report is the outcome of [Validate].
type Report struct {
	Valid       bool         `json:"valid"`
	Resolutions []Resolution `json:"resolutions"` // acceptance order
	Unresolved  []int        `json:"unresolved,omitempty"`
}

// Validate checks t against every junction in set.
//
// First each junction is matched directly: the first canonical config whose
// two edges are both tree edges is accepted. Junctions without a direct match
// are then visited once, in order. For each of their configs in canonical
// order and each accepted config in acceptance order, the config is accepted
// when the two differ in exactly one position and the differing regions share
// a depth. Accepted configs join the list immediately.
func Validate(t *Tree, set *xjunction.Set) (Report, error) {
	if set == nil {
		return Report{Valid: true}, nil
	}
	if set.N() != t.N() {
		return Report{}, fmt.Errorf("%w: set has %d regions, tree has %d", ErrSetMismatch, set.N(), t.N())
	}

	rep := Report{Resolutions: make([]Resolution, 0, set.Len())}
	var deferred []int
	for j := range set.Len() {
		if r, ok := t.direct(j, set.Configs(j)); ok {
			rep.Resolutions = append(rep.Resolutions, r)
		} else {
			deferred = append(deferred, j)
		}
	}

	for _, j := range deferred {
		if r, ok := t.derive(j, set.Configs(j), rep.Resolutions); ok {
			rep.Resolutions = append(rep.Resolutions, r)
		} else {
			rep.Unresolved = append(rep.Unresolved, j)
		}
	}

	rep.Valid = len(rep.Resolutions) == set.Len()
	return rep, nil
}

// Satisfies reports whether t passes [Validate] for set.
func (t *Tree) Satisfies(set *xjunction.Set) bool {
	rep, err := Validate(t, set)
	return err == nil && rep.Valid
}

func (t *Tree) direct(j int, configs [4]xjunction.Config) (Resolution, bool) {
	for i, c := range configs {
		b1, t1, b2, t2 := c.Edges()
		if t.HasEdge(b1, t1) && t.HasEdge(b2, t2) {
			return Resolution{Junction: j, Config: c, Index: i, Direct: true}, true
		}
	}
	return Resolution{}, false
}

func (t *Tree) derive(j int, configs [4]xjunction.Config, accepted []Resolution) (Resolution, bool) {
	for i, c := range configs {
		for _, a := range accepted {
			if t.adjacent(c, a.Config) {
				return Resolution{Junction: j, Config: c, Index: i}, true
			}
		}
	}
	return Resolution{}, false
}

// adjacent reports whether a and b differ in exactly one position and the two
// regions there sit at the same depth.
func (t *Tree) adjacent(a, b xjunction.Config) bool {
	diff := -1
	for k := range a {
		if a[k] == b[k] {
			continue
		}
		if diff >= 0 {
			return false
		}
		diff = k
	}
	return diff >= 0 && t.depth[a[diff]] == t.depth[b[diff]]
}
