// Package adjacency derives a support graph from region descriptors.
//
// Regions that touch in the image may support one another. [Build] starts
// from every adjacent pair and applies a fixed sequence of pruning rules:
//
//  1. The canvas supports every bottom candidate.
//  2. A region supports an adjacent one only if it encloses it or is not much
//     smaller (area at least two thirds) and is not enclosed by it.
//  3. Among several supporters, those sharing less than 40% of the strongest
//     shared boundary are dropped unless a junction pairs them.
//  4. A region that supports nothing and sits in a junction keeps only
//     supporters the junction pairs it with.
//  5. A region left without a supporter hangs from the canvas.
//
// The resulting edges are sorted by (From, To), which fixes the search order
// of the enumerator downstream.
package adjacency

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/core/xjunction"
)

var (
	// ErrRegionOutOfRange is returned by [Build] when a region, neighbour or
	// bottom id lies outside 1..n-1.
	ErrRegionOutOfRange = errors.New("region out of range")

	// ErrDuplicateRegion is returned by [Build] when two descriptors share an
	// id.
	ErrDuplicateRegion = errors.New("duplicate region")
)

// weakRatio is the fraction of the strongest shared boundary below which a
// supporter counts as weakly connected.
const weakRatio = 0.4

// Boundary is the number of boundary pixels a region shares with a neighbour.
type Boundary struct {
	Region int `json:"region" toml:"region" bson:"region"`
	Pixels int `json:"pixels" toml:"pixels" bson:"pixels"`
}

// BBox is an axis-aligned bounding box (minX, minY, maxX, maxY).
type BBox [4]int

// Encloses reports whether b contains o, borders included.
func (b BBox) Encloses(o BBox) bool {
	return b[0] <= o[0] && b[1] <= o[1] && b[2] >= o[2] && b[3] >= o[3]
}

// Region describes one image region.
type Region struct {
	ID       int        `json:"id" toml:"id" bson:"id"`
	Area     int        `json:"area" toml:"area" bson:"area"`
	BBox     BBox       `json:"bbox" toml:"bbox" bson:"bbox"`
	Adjacent []int      `json:"adjacent" toml:"adjacent" bson:"adjacent"`
	Shared   []Boundary `json:"shared,omitempty" toml:"shared,omitempty" bson:"shared,omitempty"`
}

// SharedWith returns the boundary length shared with region id, or 0.
func (r Region) SharedWith(id int) int {
	for _, s := range r.Shared {
		if s.Region == id {
			return s.Pixels
		}
	}
	return 0
}

// CouldSupport reports whether r may lie underneath o.
func (r Region) CouldSupport(o Region) bool {
	if r.BBox.Encloses(o.BBox) {
		return true
	}
	if o.BBox.Encloses(r.BBox) {
		return false
	}
	return float64(r.Area) >= float64(o.Area)*2/3
}

// Report counts what each rule did.
type Report struct {
	Candidates      int `json:"candidates"`       // edges after rules 1 and 2
	RemovedWeak     int `json:"removed_weak"`     // rule 3
	RemovedJunction int `json:"removed_junction"` // rule 4
	AddedIsolated   int `json:"added_isolated"`   // rule 5
	Edges           int `json:"edges"`
}

// Build returns the support edges for n nodes (canvas plus regions 1..n-1).
// Regions missing from the slice have no neighbours and zero area. A nil set
// means no junctions.
func Build(n int, regions []Region, bottom []int, set *xjunction.Set) ([]support.Pair, Report, error) {
	var rep Report
	if set == nil {
		set = xjunction.Empty(n)
	}

	byID := make([]Region, n)
	known := make([]bool, n)
	for _, r := range regions {
		if r.ID < 1 || r.ID >= n {
			return nil, rep, fmt.Errorf("%w: region %d with n=%d", ErrRegionOutOfRange, r.ID, n)
		}
		if known[r.ID] {
			return nil, rep, fmt.Errorf("%w: %d", ErrDuplicateRegion, r.ID)
		}
		for _, a := range r.Adjacent {
			if a < 0 || a >= n {
				return nil, rep, fmt.Errorf("%w: neighbour %d of region %d", ErrRegionOutOfRange, a, r.ID)
			}
		}
		byID[r.ID] = r
		known[r.ID] = true
	}
	for i := range byID {
		byID[i].ID = i
	}

	var edges []support.Pair
	supporters := make([][]int, n)
	for _, b := range bottom {
		if b < 1 || b >= n {
			return nil, rep, fmt.Errorf("%w: bottom %d", ErrRegionOutOfRange, b)
		}
		edges = append(edges, support.Pair{From: support.Root, To: b})
		supporters[b] = append(supporters[b], support.Root)
	}

	for i := 1; i < n; i++ {
		r := byID[i]
		adj := slices.Clone(r.Adjacent)
		slices.Sort(adj)
		adj = slices.Compact(adj)
		for _, a := range adj {
			if a == support.Root || a == i {
				continue
			}
			if r.CouldSupport(byID[a]) {
				edges = append(edges, support.Pair{From: i, To: a})
				supporters[a] = append(supporters[a], i)
			}
		}
	}
	rep.Candidates = len(edges)

	edges, rep.RemovedWeak = remove(edges, weakEdges(byID, supporters, set))
	edges, rep.RemovedJunction = remove(edges, junctionEdges(n, edges, set))

	hasParent := make([]bool, n)
	for _, e := range edges {
		hasParent[e.To] = true
	}
	for i := 1; i < n; i++ {
		if !hasParent[i] {
			edges = append(edges, support.Pair{From: support.Root, To: i})
			rep.AddedIsolated++
		}
	}

	slices.SortFunc(edges, support.ComparePairs)
	edges = slices.Compact(edges)
	rep.Edges = len(edges)
	return edges, rep, nil
}

func weakEdges(byID []Region, supporters [][]int, set *xjunction.Set) map[support.Pair]bool {
	drop := make(map[support.Pair]bool)
	for i := 1; i < len(byID); i++ {
		if len(supporters[i]) < 2 {
			continue
		}
		strongest := -1
		for _, s := range supporters[i] {
			strongest = max(strongest, byID[i].SharedWith(s))
		}
		for _, s := range supporters[i] {
			if float64(byID[i].SharedWith(s)) < float64(strongest)*weakRatio && !set.ContainsPair(s, i) {
				drop[support.Pair{From: s, To: i}] = true
			}
		}
	}
	return drop
}

func junctionEdges(n int, edges []support.Pair, set *xjunction.Set) map[support.Pair]bool {
	supports := make([]bool, n)
	supporters := make([][]int, n)
	for _, e := range edges {
		supports[e.From] = true
		supporters[e.To] = append(supporters[e.To], e.From)
	}

	drop := make(map[support.Pair]bool)
	for i := 1; i < n; i++ {
		if supports[i] || !set.ContainsRegion(i) {
			continue
		}
		for _, s := range supporters[i] {
			if !set.ContainsPair(s, i) {
				drop[support.Pair{From: s, To: i}] = true
			}
		}
	}
	return drop
}

// remove filters every occurrence of the dropped pairs and reports how many
// edges went.
func remove(edges []support.Pair, drop map[support.Pair]bool) ([]support.Pair, int) {
	if len(drop) == 0 {
		return edges, 0
	}
	kept := edges[:0]
	for _, e := range edges {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	return kept, len(edges) - len(kept)
}
