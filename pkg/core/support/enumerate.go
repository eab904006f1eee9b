package support

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/supportree/pkg/core/xjunction"
)

// ErrSetMismatch is returned when a junction set was built for a different
// number of regions than the graph.
var ErrSetMismatch = errors.New("junction set does not match graph size")

// Bounds limits the shape of enumerated trees.
type Bounds struct {
	// MaxDepth is the deepest a node may sit below the root (root = 0).
	MaxDepth int `json:"max_depth" toml:"max_depth" bson:"max_depth"`
	// L1Quota caps the number of direct children of the root, the nodes
	// at tree depth 1. The search counts them as it places nodes at search
	// depth 2, since it puts the root at 1.
	L1Quota int `json:"l1_quota" toml:"l1_quota" bson:"l1_quota"`
}

// String renders the bounds for log output.
func (b Bounds) String() string {
	return fmt.Sprintf("depth<=%d quota<=%d", b.MaxDepth, b.L1Quota)
}

// Options configures [Graph.Enumerate].
type Options struct {
	Bounds
	// MaxCandidates stops the search after this many trees. Zero means no cap.
	MaxCandidates int
}

// Stats reports what a search did.
type Stats struct {
	Explored       int  `json:"explored"`        // grow calls
	Placements     int  `json:"placements"`      // edges tentatively placed
	PrunedJunction int  `json:"pruned_junction"` // placements rejected by a junction
	Candidates     int  `json:"candidates"`      // complete trees emitted
	Stopped        bool `json:"stopped"`         // callback asked to stop early
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Explored += o.Explored
	s.Placements += o.Placements
	s.PrunedJunction += o.PrunedJunction
	s.Candidates += o.Candidates
	s.Stopped = s.Stopped || o.Stopped
}

// Enumeration is the result of [Graph.Enumerate].
type Enumeration struct {
	Trees [][]Pair
	Stats Stats
}

// Enumerate collects every spanning tree of g that fits opts and passes the
// incremental junction checks of set. Each tree is a list of n-1 pairs sorted
// by (From, To). A nil set means no junctions.
//
// Trees are produced in search order, which depends only on the graph's edge
// insertion order, so repeated calls return identical results.
func (g *Graph) Enumerate(set *xjunction.Set, opts Options) (Enumeration, error) {
	var res Enumeration
	stats, err := g.EnumerateFunc(set, opts.Bounds, func(tree []Pair) bool {
		res.Trees = append(res.Trees, tree)
		return opts.MaxCandidates <= 0 || len(res.Trees) < opts.MaxCandidates
	})
	res.Stats = stats
	return res, err
}

// EnumerateFunc runs the search and calls fn for each candidate tree until fn
// returns false. The slice passed to fn is owned by the caller.
func (g *Graph) EnumerateFunc(set *xjunction.Set, b Bounds, fn func([]Pair) bool) (Stats, error) {
	if set == nil {
		set = xjunction.Empty(g.n)
	}
	if set.N() != g.n {
		return Stats{}, fmt.Errorf("%w: set has %d regions, graph has %d", ErrSetMismatch, set.N(), g.n)
	}
	if !g.Connected() {
		return Stats{}, nil
	}

	s := newSearch(g, set, b, fn)
	s.depth[Root] = 1
	s.grow(Root, 0, 1, 0)
	return s.stats, nil
}

// search holds the mutable state of one enumeration. Depths are stored one
// higher than tree depth so that zero can mean "not yet placed".
type search struct {
	g      *Graph
	set    *xjunction.Set
	bounds Bounds
	emit   func([]Pair) bool

	depth   []int  // node -> search depth, 0 = unassigned, root = 1
	xjCount []int  // junction -> placed members
	inTree  []bool // edge id -> chosen
	choices []int  // chosen edge ids, in placement order
	cand    []int  // frontier of candidate edge ids
	stop    bool
	stats   Stats
}

func newSearch(g *Graph, set *xjunction.Set, b Bounds, emit func([]Pair) bool) *search {
	return &search{
		g:       g,
		set:     set,
		bounds:  b,
		emit:    emit,
		depth:   make([]int, g.n),
		xjCount: make([]int, set.Len()),
		inTree:  make([]bool, len(g.edges)),
		choices: make([]int, 0, g.n),
		cand:    make([]int, 0, len(g.edges)),
	}
}

// grow extends the partial tree from u, considering candidates from index
// left onward. placed counts assigned nodes, l1 the root's children.
func (s *search) grow(u, left, placed, l1 int) {
	s.stats.Explored++
	if placed == s.g.n {
		s.stats.Candidates++
		if !s.emit(s.tree()) {
			s.stop = true
			s.stats.Stopped = true
		}
		return
	}

	mark := len(s.cand)
	for _, id := range s.g.outgoing[u] {
		if s.depth[s.g.edges[id].To] == 0 {
			s.cand = append(s.cand, id)
		}
	}

	for k := left; k < len(s.cand) && !s.stop; k++ {
		e := s.g.edges[s.cand[k]]
		if s.admissible(e, l1) {
			s.place(e)
			if s.junctionsHold(e.To) {
				next := l1
				if s.depth[e.To] == 2 {
					next++
				}
				s.grow(e.To, k+1, placed+1, next)
			} else {
				s.stats.PrunedJunction++
			}
			s.unplace(e)
		}
		// Every tree holds a necessary edge; skipping it here leaves nothing.
		if e.Necessary {
			break
		}
	}
	s.cand = s.cand[:mark]
}

func (s *search) admissible(e Edge, l1 int) bool {
	dp := s.depth[e.From]
	return s.depth[e.To] == 0 &&
		dp <= s.bounds.MaxDepth &&
		(l1 < s.bounds.L1Quota || dp != 1)
}

func (s *search) place(e Edge) {
	s.stats.Placements++
	s.depth[e.To] = s.depth[e.From] + 1
	for _, j := range s.set.Memberships(e.To) {
		s.xjCount[j]++
	}
	s.inTree[e.ID] = true
	s.choices = append(s.choices, e.ID)
}

func (s *search) unplace(e Edge) {
	s.choices = s.choices[:len(s.choices)-1]
	s.inTree[e.ID] = false
	for _, j := range s.set.Memberships(e.To) {
		s.xjCount[j]--
	}
	s.depth[e.To] = 0
}

// chosen reports whether u→v is currently in the partial tree.
func (s *search) chosen(u, v int) bool {
	id, ok := s.g.index[Pair{From: u, To: v}]
	return ok && s.inTree[id]
}

func (s *search) tree() []Pair {
	out := make([]Pair, len(s.choices))
	for i, id := range s.choices {
		out[i] = s.g.edges[id].Pair()
	}
	slices.SortFunc(out, ComparePairs)
	return out
}
