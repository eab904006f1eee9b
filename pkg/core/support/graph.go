package support

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrEmptyGraph is returned by [New] when n < 1. Every graph needs a root.
	ErrEmptyGraph = errors.New("graph needs at least the root node")

	// ErrNodeOutOfRange is returned by [New] when an edge endpoint lies
	// outside 0..n-1.
	ErrNodeOutOfRange = errors.New("node out of range")

	// ErrSelfEdge is returned by [New] for an edge u→u.
	ErrSelfEdge = errors.New("self edge")

	// ErrEdgeIntoRoot is returned by [New] for an edge u→0. The root is never
	// supported by a region.
	ErrEdgeIntoRoot = errors.New("edge into root")
)

// Root is the id of the canvas node.
const Root = 0

// Pair is a directed edge given by its endpoints.
type Pair struct {
	From int `json:"from" toml:"from" bson:"from"`
	To   int `json:"to" toml:"to" bson:"to"`
}

// String renders the pair as "from->to".
func (p Pair) String() string { return fmt.Sprintf("%d->%d", p.From, p.To) }

// ComparePairs orders pairs by From, then To.
func ComparePairs(a, b Pair) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	return cmp.Compare(a.To, b.To)
}

// Edge is a deduplicated graph edge with a stable id.
type Edge struct {
	ID        int  // Index into the graph's edge table
	From      int  // Supporting region
	To        int  // Supported region
	Necessary bool // Present in every spanning tree
}

// Pair returns the edge endpoints.
func (e Edge) Pair() Pair { return Pair{From: e.From, To: e.To} }

// Graph is an immutable directed support graph over nodes 0..n-1.
//
// The zero value is not usable; build one with [New].
type Graph struct {
	n        int
	edges    []Edge
	outgoing [][]int // node -> edge ids in insertion order
	incoming [][]int // node -> edge ids in insertion order
	index    map[Pair]int
	reach    int // nodes reachable from root with every edge present
}

// New builds a graph on n nodes from pairs. Duplicate pairs are dropped and
// the first occurrence keeps its position. Necessity is computed here, once.
func New(n int, pairs []Pair) (*Graph, error) {
	if n < 1 {
		return nil, ErrEmptyGraph
	}
	g := &Graph{
		n:        n,
		outgoing: make([][]int, n),
		incoming: make([][]int, n),
		index:    make(map[Pair]int, len(pairs)),
	}
	for _, p := range pairs {
		switch {
		case p.From < 0 || p.From >= n || p.To < 0 || p.To >= n:
			return nil, fmt.Errorf("%w: %v with n=%d", ErrNodeOutOfRange, p, n)
		case p.From == p.To:
			return nil, fmt.Errorf("%w: %v", ErrSelfEdge, p)
		case p.To == Root:
			return nil, fmt.Errorf("%w: %v", ErrEdgeIntoRoot, p)
		}
		if _, dup := g.index[p]; dup {
			continue
		}
		id := len(g.edges)
		g.edges = append(g.edges, Edge{ID: id, From: p.From, To: p.To})
		g.index[p] = id
		g.outgoing[p.From] = append(g.outgoing[p.From], id)
		g.incoming[p.To] = append(g.incoming[p.To], id)
	}

	g.reach = g.reachable(-1)
	for i := range g.edges {
		g.edges[i].Necessary = g.reachable(i) < n
	}
	return g, nil
}

// reachable counts nodes reachable from the root by BFS, ignoring edge skip.
func (g *Graph) reachable(skip int) int {
	seen := make([]bool, g.n)
	seen[Root] = true
	queue := []int{Root}
	count := 1
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, id := range g.outgoing[u] {
			if id == skip {
				continue
			}
			if v := g.edges[id].To; !seen[v] {
				seen[v] = true
				count++
				queue = append(queue, v)
			}
		}
	}
	return count
}

// N returns the number of nodes including the root.
func (g *Graph) N() int { return g.n }

// Len returns the number of distinct edges.
func (g *Graph) Len() int { return len(g.edges) }

// Edges returns a copy of the edge table in id order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Edge returns the edge with the given id.
func (g *Graph) Edge(id int) Edge { return g.edges[id] }

// Pairs returns all edges as pairs sorted by (From, To).
func (g *Graph) Pairs() []Pair {
	out := make([]Pair, len(g.edges))
	for i, e := range g.edges {
		out[i] = e.Pair()
	}
	slices.SortFunc(out, ComparePairs)
	return out
}

// Outgoing returns the ids of edges leaving u in insertion order.
// The returned slice must not be modified.
func (g *Graph) Outgoing(u int) []int { return g.outgoing[u] }

// Exists reports whether the edge u→v is in the graph.
func (g *Graph) Exists(u, v int) bool {
	_, ok := g.index[Pair{From: u, To: v}]
	return ok
}

// Lookup returns the id of edge u→v, if present.
func (g *Graph) Lookup(u, v int) (int, bool) {
	id, ok := g.index[Pair{From: u, To: v}]
	return id, ok
}

// IsNecessary reports whether edge id lies in every spanning tree.
func (g *Graph) IsNecessary(id int) bool { return g.edges[id].Necessary }

// Successors returns the nodes u supports, in insertion order.
func (g *Graph) Successors(u int) []int {
	out := make([]int, len(g.outgoing[u]))
	for i, id := range g.outgoing[u] {
		out[i] = g.edges[id].To
	}
	return out
}

// Predecessors returns the nodes that could support v, in insertion order.
func (g *Graph) Predecessors(v int) []int {
	out := make([]int, len(g.incoming[v]))
	for i, id := range g.incoming[v] {
		out[i] = g.edges[id].From
	}
	return out
}

// HasNoSuccessors reports whether u supports nothing.
func (g *Graph) HasNoSuccessors(u int) bool { return len(g.outgoing[u]) == 0 }

// Connected reports whether every node is reachable from the root. A graph
// that is not connected has no spanning tree.
func (g *Graph) Connected() bool { return g.reach == g.n }

// Necessary returns the necessary edges as sorted pairs.
func (g *Graph) Necessary() []Pair {
	var out []Pair
	for _, e := range g.edges {
		if e.Necessary {
			out = append(out, e.Pair())
		}
	}
	slices.SortFunc(out, ComparePairs)
	return out
}
