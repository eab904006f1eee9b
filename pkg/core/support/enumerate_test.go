package support

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/supportree/pkg/core/xjunction"
)

func mustGraph(t *testing.T, n int, ps []Pair) *Graph {
	t.Helper()
	g, err := New(n, ps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func mustSet(t *testing.T, n int, js ...xjunction.Junction) *xjunction.Set {
	t.Helper()
	set, err := xjunction.NewSet(n, js)
	if err != nil {
		t.Fatalf("NewSet() error = %v", err)
	}
	return set
}

func mustEnumerate(t *testing.T, g *Graph, set *xjunction.Set, opts Options) Enumeration {
	t.Helper()
	res, err := g.Enumerate(set, opts)
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	return res
}

func treeKey(tree []Pair) string {
	parts := make([]string, len(tree))
	for i, p := range tree {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

func keys(trees [][]Pair) []string {
	out := make([]string, len(trees))
	for i, tr := range trees {
		out[i] = treeKey(tr)
	}
	slices.Sort(out)
	return out
}

var diamond = pairs([2]int{0, 1}, [2]int{0, 2}, [2]int{1, 3}, [2]int{2, 3})

func TestEnumerateDiamond(t *testing.T) {
	g := mustGraph(t, 4, diamond)

	tests := []struct {
		name   string
		bounds Bounds
		want   []string
	}{
		{
			name:   "both trees",
			bounds: Bounds{MaxDepth: 2, L1Quota: 2},
			want:   []string{"0->1 0->2 1->3", "0->1 0->2 2->3"},
		},
		{
			name:   "quota too small",
			bounds: Bounds{MaxDepth: 3, L1Quota: 1},
			want:   []string{},
		},
		{
			name:   "depth too small",
			bounds: Bounds{MaxDepth: 1, L1Quota: 3},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustEnumerate(t, g, nil, Options{Bounds: tt.bounds})
			if got := keys(res.Trees); !slices.Equal(got, tt.want) {
				t.Errorf("trees = %q, want %q", got, tt.want)
			}
			if res.Stats.Candidates != len(tt.want) {
				t.Errorf("Stats.Candidates = %d, want %d", res.Stats.Candidates, len(tt.want))
			}
		})
	}
}

func TestEnumerateJunctionAcceptsBothDiamondTrees(t *testing.T) {
	g := mustGraph(t, 4, diamond)
	set := mustSet(t, 4, xjunction.Junction{1, 3, 2, 0})
	res := mustEnumerate(t, g, set, Options{Bounds: Bounds{MaxDepth: 2, L1Quota: 2}})
	if len(res.Trees) != 2 {
		t.Errorf("len(Trees) = %d, want 2", len(res.Trees))
	}
}

func TestEnumerateSingleNode(t *testing.T) {
	g := mustGraph(t, 1, nil)
	res := mustEnumerate(t, g, nil, Options{})
	if len(res.Trees) != 1 || len(res.Trees[0]) != 0 {
		t.Errorf("Trees = %v, want one empty tree", res.Trees)
	}
}

func TestEnumerateDisconnected(t *testing.T) {
	g := mustGraph(t, 4, pairs([2]int{0, 1}, [2]int{1, 2}))
	res := mustEnumerate(t, g, nil, Options{Bounds: Bounds{MaxDepth: 5, L1Quota: 5}})
	if len(res.Trees) != 0 {
		t.Errorf("Trees = %v, want none", res.Trees)
	}
	if res.Stats.Explored != 0 {
		t.Errorf("Stats.Explored = %d, want 0", res.Stats.Explored)
	}
}

func TestEnumerateSetMismatch(t *testing.T) {
	g := mustGraph(t, 4, diamond)
	set := mustSet(t, 6, xjunction.Junction{1, 2, 3, 4})
	if _, err := g.Enumerate(set, Options{}); !errors.Is(err, ErrSetMismatch) {
		t.Errorf("Enumerate() error = %v, want %v", err, ErrSetMismatch)
	}
}

func TestEnumerateJunctionPruning(t *testing.T) {
	tests := []struct {
		name  string
		pairs []Pair
	}{
		{
			name:  "three members on one level",
			pairs: pairs([2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4}),
		},
		{
			name:  "diagonal edge",
			pairs: pairs([2]int{0, 1}, [2]int{1, 3}, [2]int{0, 2}, [2]int{2, 4}),
		},
		{
			name:  "opposite sides reversed",
			pairs: pairs([2]int{0, 1}, [2]int{1, 2}, [2]int{0, 3}, [2]int{3, 4}),
		},
	}

	bounds := Bounds{MaxDepth: 4, L1Quota: 4}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGraph(t, 5, tt.pairs)

			free := mustEnumerate(t, g, nil, Options{Bounds: bounds})
			if len(free.Trees) != 1 {
				t.Fatalf("without junctions: len(Trees) = %d, want 1", len(free.Trees))
			}

			set := mustSet(t, 5, xjunction.Junction{1, 2, 3, 4})
			res := mustEnumerate(t, g, set, Options{Bounds: bounds})
			if len(res.Trees) != 0 {
				t.Errorf("with junction: Trees = %v, want none", res.Trees)
			}
			if res.Stats.PrunedJunction == 0 {
				t.Error("Stats.PrunedJunction = 0, want > 0")
			}
		})
	}
}

func TestEnumerateNecessaryEdgeStopsScan(t *testing.T) {
	// 0->2 is necessary: trees that skip it are never explored.
	g := mustGraph(t, 4, pairs([2]int{0, 1}, [2]int{0, 2}, [2]int{1, 3}, [2]int{2, 1}))
	res := mustEnumerate(t, g, nil, Options{Bounds: Bounds{MaxDepth: 3, L1Quota: 2}})
	want := []string{"0->1 0->2 1->3", "0->2 1->3 2->1"}
	if got := keys(res.Trees); !slices.Equal(got, want) {
		t.Errorf("trees = %q, want %q", got, want)
	}
	for _, tr := range res.Trees {
		for _, p := range g.Necessary() {
			if !slices.Contains(tr, p) {
				t.Errorf("tree %v lacks necessary edge %v", tr, p)
			}
		}
	}
}

func TestEnumerateMaxCandidates(t *testing.T) {
	g := mustGraph(t, 4, diamond)
	res := mustEnumerate(t, g, nil, Options{Bounds: Bounds{MaxDepth: 2, L1Quota: 2}, MaxCandidates: 1})
	if len(res.Trees) != 1 {
		t.Errorf("len(Trees) = %d, want 1", len(res.Trees))
	}
	if !res.Stats.Stopped {
		t.Error("Stats.Stopped = false, want true")
	}
}

func TestEnumerateIdempotent(t *testing.T) {
	g := mustGraph(t, 4, diamond)
	set := mustSet(t, 4, xjunction.Junction{1, 3, 2, 0})
	opts := Options{Bounds: Bounds{MaxDepth: 3, L1Quota: 3}}
	a := mustEnumerate(t, g, set, opts)
	b := mustEnumerate(t, g, set, opts)
	if !slices.Equal(keys(a.Trees), keys(b.Trees)) {
		t.Errorf("repeated Enumerate differs: %q vs %q", keys(a.Trees), keys(b.Trees))
	}
	if a.Stats != b.Stats {
		t.Errorf("repeated Stats differ: %+v vs %+v", a.Stats, b.Stats)
	}
}

// randomProblem builds a connected-ish random graph on n nodes plus up to two
// random junctions over regions 1..n-1.
func randomProblem(r *rand.Rand, n int) ([]Pair, []xjunction.Junction) {
	var ps []Pair
	for v := 1; v < n; v++ {
		ps = append(ps, Pair{From: r.IntN(v), To: v})
	}
	for range r.IntN(2 * n) {
		u, v := r.IntN(n), 1+r.IntN(n-1)
		if u != v {
			ps = append(ps, Pair{From: u, To: v})
		}
	}
	var js []xjunction.Junction
	if n >= 5 {
		for range r.IntN(3) {
			p := r.Perm(n - 1)
			js = append(js, xjunction.Junction{p[0] + 1, p[1] + 1, p[2] + 1, p[3] + 1})
		}
	}
	return ps, js
}

// bruteForce lists every arborescence of g within b by trying all parent
// assignments.
func bruteForce(g *Graph, b Bounds) []string {
	n := g.N()
	choice := make([][]int, n)
	for v := 1; v < n; v++ {
		choice[v] = g.Predecessors(v)
		if len(choice[v]) == 0 {
			return []string{}
		}
	}

	parent := make([]int, n)
	out := []string{}
	var rec func(v int)
	rec = func(v int) {
		if v == n {
			if tr, ok := checkParents(parent, b); ok {
				out = append(out, treeKey(tr))
			}
			return
		}
		for _, p := range choice[v] {
			parent[v] = p
			rec(v + 1)
		}
	}
	rec(1)
	slices.Sort(out)
	return out
}

func checkParents(parent []int, b Bounds) ([]Pair, bool) {
	n := len(parent)
	l1 := 0
	var tr []Pair
	for v := 1; v < n; v++ {
		depth := 0
		for u := v; u != Root; u = parent[u] {
			depth++
			if depth > n {
				return nil, false
			}
		}
		if depth > b.MaxDepth {
			return nil, false
		}
		if parent[v] == Root {
			l1++
		}
		tr = append(tr, Pair{From: parent[v], To: v})
	}
	if l1 > b.L1Quota {
		return nil, false
	}
	slices.SortFunc(tr, ComparePairs)
	return tr, true
}

func TestEnumerateMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := range 200 {
		n := 2 + r.IntN(5)
		ps, _ := randomProblem(r, n)
		g := mustGraph(t, n, ps)
		b := Bounds{MaxDepth: 1 + r.IntN(n), L1Quota: 1 + r.IntN(n)}

		res := mustEnumerate(t, g, nil, Options{Bounds: b})
		got := keys(res.Trees)
		want := bruteForce(g, b)
		if !slices.Equal(got, want) {
			t.Fatalf("case %d (n=%d %v edges=%v):\n got  %q\n want %q", i, n, b, ps, got, want)
		}
		if len(slices.Compact(slices.Clone(got))) != len(got) {
			t.Fatalf("case %d: duplicate trees in %q", i, got)
		}
	}
}

func TestEnumerateTreeInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for i := range 200 {
		n := 5 + r.IntN(3)
		ps, js := randomProblem(r, n)
		g := mustGraph(t, n, ps)
		set := mustSet(t, n, js...)
		b := Bounds{MaxDepth: 2 + r.IntN(n), L1Quota: 1 + r.IntN(n)}

		res := mustEnumerate(t, g, set, Options{Bounds: b})
		for _, tr := range res.Trees {
			if err := checkTree(g, tr, b); err != nil {
				t.Fatalf("case %d: tree %v: %v", i, tr, err)
			}
		}
	}
}

func checkTree(g *Graph, tr []Pair, b Bounds) error {
	n := g.N()
	if len(tr) != n-1 {
		return fmt.Errorf("%d edges, want %d", len(tr), n-1)
	}
	parent := make([]int, n)
	seen := make([]bool, n)
	for _, p := range tr {
		if !g.Exists(p.From, p.To) {
			return fmt.Errorf("edge %v not in graph", p)
		}
		if p.To == Root || seen[p.To] {
			return fmt.Errorf("child %d repeated", p.To)
		}
		seen[p.To] = true
		parent[p.To] = p.From
	}
	for _, p := range g.Necessary() {
		if !slices.Contains(tr, p) {
			return fmt.Errorf("missing necessary edge %v", p)
		}
	}
	if _, ok := checkParents(parent, b); !ok {
		return fmt.Errorf("violates %v", b)
	}
	return nil
}

func TestEnumerateMonotone(t *testing.T) {
	r := rand.New(rand.NewPCG(13, 17))
	for i := range 100 {
		n := 5 + r.IntN(3)
		ps, js := randomProblem(r, n)
		g := mustGraph(t, n, ps)
		set := mustSet(t, n, js...)
		b := Bounds{MaxDepth: 1 + r.IntN(n-1), L1Quota: 1 + r.IntN(n-1)}

		base := keys(mustEnumerate(t, g, set, Options{Bounds: b}).Trees)
		deeper := keys(mustEnumerate(t, g, set, Options{Bounds: Bounds{MaxDepth: b.MaxDepth + 1, L1Quota: b.L1Quota}}).Trees)
		wider := keys(mustEnumerate(t, g, set, Options{Bounds: Bounds{MaxDepth: b.MaxDepth, L1Quota: b.L1Quota + 1}}).Trees)

		for _, k := range base {
			if _, found := slices.BinarySearch(deeper, k); !found {
				t.Fatalf("case %d: %q lost when MaxDepth grew", i, k)
			}
			if _, found := slices.BinarySearch(wider, k); !found {
				t.Fatalf("case %d: %q lost when L1Quota grew", i, k)
			}
		}
	}
}
