package xjunction

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedJunction is returned by [NewSet] when a junction does not
	// name four distinct regions.
	ErrMalformedJunction = errors.New("junction must name four distinct regions")

	// ErrRegionOutOfRange is returned by [NewSet] when a junction references a
	// region id outside 0..n-1.
	ErrRegionOutOfRange = errors.New("junction region out of range")
)

// Junction is the raw clockwise 4-tuple of region ids meeting at a point.
type Junction [4]int

// Config is one canonical explanation of a junction: B1 supports T1 and B2
// supports T2, stored as (B1, T1, B2, T2).
type Config [4]int

// Edges returns the two supporting edges claimed by the config.
func (c Config) Edges() (b1, t1, b2, t2 int) {
	return c[0], c[1], c[2], c[3]
}

// Contains reports whether r appears anywhere in the config.
func (c Config) Contains(r int) bool {
	return c[0] == r || c[1] == r || c[2] == r || c[3] == r
}

// HasPair reports whether {r1, r2} equals one of the config's two edges,
// ignoring direction.
func (c Config) HasPair(r1, r2 int) bool {
	return samePair(c[0], c[1], r1, r2) || samePair(c[2], c[3], r1, r2)
}

func samePair(a, b, r1, r2 int) bool {
	return (a == r1 && b == r2) || (a == r2 && b == r1)
}

// Configs returns the four canonical configurations of j in fixed order.
func Configs(j Junction) [4]Config {
	x0, x1, x2, x3 := j[0], j[1], j[2], j[3]

	c1 := Config{x0, x1, x3, x2}
	if x3 < x0 {
		c1 = Config{x3, x2, x0, x1}
	}
	c2 := Config{x1, x0, x2, x3}
	if x2 < x1 {
		c2 = Config{x2, x3, x1, x0}
	}
	c3 := Config{x0, x3, x1, x2}
	if x1 < x0 {
		c3 = Config{x1, x2, x0, x3}
	}
	c4 := Config{x3, x0, x2, x1}
	if x2 < x3 {
		c4 = Config{x2, x1, x3, x0}
	}
	return [4]Config{c1, c2, c3, c4}
}

// Validate checks that j names four distinct regions in 0..n-1.
func (j Junction) Validate(n int) error {
	for i, r := range j {
		if r < 0 || r >= n {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrRegionOutOfRange, r, n)
		}
		for _, s := range j[:i] {
			if s == r {
				return fmt.Errorf("%w: %v repeats %d", ErrMalformedJunction, j, r)
			}
		}
	}
	return nil
}

// Set is an immutable collection of junctions over n regions together with
// their canonical configurations and a per-region membership index.
type Set struct {
	n         int
	junctions []Junction
	configs   [][4]Config
	member    [][]int // region -> junction indices, ascending
}

// NewSet validates junctions against n regions and derives their
// configurations. The error names the offending junction index.
func NewSet(n int, junctions []Junction) (*Set, error) {
	s := &Set{
		n:         n,
		junctions: make([]Junction, len(junctions)),
		configs:   make([][4]Config, len(junctions)),
		member:    make([][]int, max(n, 0)),
	}
	for i, j := range junctions {
		if err := j.Validate(n); err != nil {
			return nil, fmt.Errorf("junction %d: %w", i, err)
		}
		s.junctions[i] = j
		s.configs[i] = Configs(j)
		for _, r := range j {
			s.member[r] = append(s.member[r], i)
		}
	}
	return s, nil
}

// Empty returns a set with no junctions over n regions.
func Empty(n int) *Set {
	s, _ := NewSet(n, nil)
	return s
}

// N returns the number of regions the set was built for.
func (s *Set) N() int { return s.n }

// Len returns the number of junctions.
func (s *Set) Len() int { return len(s.junctions) }

// Junction returns the raw tuple of junction i.
func (s *Set) Junction(i int) Junction { return s.junctions[i] }

// Junctions returns a copy of all raw tuples in input order.
func (s *Set) Junctions() []Junction {
	out := make([]Junction, len(s.junctions))
	copy(out, s.junctions)
	return out
}

// Configs returns the canonical configurations of junction i.
func (s *Set) Configs(i int) [4]Config { return s.configs[i] }

// Memberships returns the indices of junctions that contain region r.
// The returned slice must not be modified.
func (s *Set) Memberships(r int) []int {
	if r < 0 || r >= len(s.member) {
		return nil
	}
	return s.member[r]
}

// ContainsPair reports whether some configuration pairs r1 with r2 as one of
// its supporting edges, in either direction.
func (s *Set) ContainsPair(r1, r2 int) bool {
	for _, cs := range s.configs {
		for _, c := range cs {
			if c.HasPair(r1, r2) {
				return true
			}
		}
	}
	return false
}

// ContainsRegion reports whether region r takes part in any junction.
func (s *Set) ContainsRegion(r int) bool {
	return len(s.Memberships(r)) > 0
}
