package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/supportree/pkg/core/support"
)

var (
	// ErrNotSpanning is returned by [New] when the edge count is not n-1.
	ErrNotSpanning = errors.New("tree must have n-1 edges")

	// ErrNodeOutOfRange is returned by [New] when an edge endpoint lies
	// outside 0..n-1.
	ErrNodeOutOfRange = errors.New("node out of range")

	// ErrDuplicateChild is returned by [New] when a node has two parents or
	// the root has one.
	ErrDuplicateChild = errors.New("node has more than one parent")

	// ErrCycle is returned by [New] when some node cannot be reached from the
	// root.
	ErrCycle = errors.New("edges form a cycle")
)

// Tree is an immutable rooted spanning tree.
type Tree struct {
	edges    []support.Pair // sorted by (From, To)
	parent   []int          // -1 for the root
	depth    []int          // root = 0
	children [][]int        // ascending
	height   int
}

// New builds a tree on n nodes from edges and checks that every non-root
// node has exactly one parent and is reachable from the root.
func New(n int, edges []support.Pair) (*Tree, error) {
	if n < 1 || len(edges) != n-1 {
		return nil, fmt.Errorf("%w: got %d edges for %d nodes", ErrNotSpanning, len(edges), n)
	}

	t := &Tree{
		edges:    slices.Clone(edges),
		parent:   make([]int, n),
		depth:    make([]int, n),
		children: make([][]int, n),
	}
	slices.SortFunc(t.edges, support.ComparePairs)

	for i := range t.parent {
		t.parent[i] = -1
	}
	for _, e := range t.edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return nil, fmt.Errorf("%w: %v", ErrNodeOutOfRange, e)
		}
		if e.To == support.Root || t.parent[e.To] != -1 {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateChild, e.To)
		}
		t.parent[e.To] = e.From
		t.children[e.From] = append(t.children[e.From], e.To)
	}

	seen := 1
	queue := []int{support.Root}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range t.children[u] {
			t.depth[v] = t.depth[u] + 1
			t.height = max(t.height, t.depth[v])
			seen++
			queue = append(queue, v)
		}
	}
	if seen != n {
		return nil, fmt.Errorf("%w: %d of %d nodes reachable", ErrCycle, seen, n)
	}
	return t, nil
}

// N returns the number of nodes.
func (t *Tree) N() int { return len(t.parent) }

// Len returns the number of edges, always N()-1.
func (t *Tree) Len() int { return len(t.edges) }

// Edges returns a copy of the edges sorted by (From, To).
func (t *Tree) Edges() []support.Pair { return slices.Clone(t.edges) }

// Depth returns the distance of v from the root.
func (t *Tree) Depth(v int) int { return t.depth[v] }

// Depths returns a copy of all node depths.
func (t *Tree) Depths() []int { return slices.Clone(t.depth) }

// Parent returns the supporter of v, or -1 for the root.
func (t *Tree) Parent(v int) int { return t.parent[v] }

// Children returns the nodes u supports in ascending order.
// The returned slice must not be modified.
func (t *Tree) Children(u int) []int { return t.children[u] }

// Height returns the greatest node depth.
func (t *Tree) Height() int { return t.height }

// HasEdge reports whether u supports v in the tree.
func (t *Tree) HasEdge(u, v int) bool {
	return v > 0 && v < len(t.parent) && t.parent[v] == u
}

// Contains reports whether every given edge is in the tree.
func (t *Tree) Contains(edges ...support.Pair) bool {
	for _, e := range edges {
		if !t.HasEdge(e.From, e.To) {
			return false
		}
	}
	return true
}

// Layers groups node ids by depth, each layer in ascending order. Layer 0 is
// the root alone.
func (t *Tree) Layers() [][]int {
	layers := make([][]int, t.height+1)
	for v, d := range t.depth {
		layers[d] = append(layers[d], v)
	}
	return layers
}

// String renders the tree as its sorted edge list.
func (t *Tree) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range t.edges {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}
