package problem

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/core/adjacency"
	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/core/xjunction"
	"github.com/matzehuels/supportree/pkg/errors"
)

// Problem is the input of a run.
type Problem struct {
	Name      string             `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	Nodes     int                `json:"nodes" toml:"nodes" bson:"nodes"`
	Edges     [][2]int           `json:"edges,omitempty" toml:"edges,omitempty" bson:"edges,omitempty"`
	Regions   []adjacency.Region `json:"regions,omitempty" toml:"regions,omitempty" bson:"regions,omitempty"`
	Bottom    []int              `json:"bottom,omitempty" toml:"bottom,omitempty" bson:"bottom,omitempty"`
	Junctions [][4]int           `json:"junctions,omitempty" toml:"junctions,omitempty" bson:"junctions,omitempty"`
	Search    *Search            `json:"search,omitempty" toml:"search,omitempty" bson:"search,omitempty"`
}

// Search holds per-problem search preferences. Zero fields fall back to the
// caller's options.
type Search struct {
	MaxDepth      int   `json:"max_depth,omitempty" toml:"max_depth,omitempty" bson:"max_depth,omitempty"`
	L1Quota       int   `json:"l1_quota,omitempty" toml:"l1_quota,omitempty" bson:"l1_quota,omitempty"`
	Escalate      *bool `json:"escalate,omitempty" toml:"escalate,omitempty" bson:"escalate,omitempty"`
	MaxCandidates int   `json:"max_candidates,omitempty" toml:"max_candidates,omitempty" bson:"max_candidates,omitempty"`
}

// Built is a problem ready for search.
type Built struct {
	Graph     *support.Graph
	Junctions *xjunction.Set
	// Adjacency is set when edges were derived from regions.
	Adjacency *adjacency.Report
}

// Validate checks the parts of the problem that do not need graph
// construction.
func (p *Problem) Validate() error {
	if err := errors.ValidateNodeCount(p.Nodes); err != nil {
		return err
	}
	if len(p.Edges) > 0 && len(p.Regions) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "give either edges or regions, not both")
	}
	if p.Nodes > 1 && len(p.Edges) == 0 && len(p.Regions) == 0 && len(p.Bottom) == 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "problem has %d nodes but no edges or regions", p.Nodes)
	}
	return nil
}

// Build validates the problem and constructs its junction set and graph.
// Without explicit edges the graph comes from the adjacency builder.
func (p *Problem) Build() (*Built, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	set, err := xjunction.NewSet(p.Nodes, p.junctions())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidJunction, err, "junctions")
	}

	built := &Built{Junctions: set}
	pairs := p.pairs()
	if len(p.Edges) == 0 {
		derived, rep, err := adjacency.Build(p.Nodes, p.Regions, p.Bottom, set)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "regions")
		}
		pairs = derived
		built.Adjacency = &rep
	}

	g, err := support.New(p.Nodes, pairs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "edges")
	}
	built.Graph = g
	return built, nil
}

// Hash returns a content hash over the fields that change the result. The
// name and search preferences are excluded.
func (p *Problem) Hash() string {
	key := struct {
		Nodes     int                `json:"nodes"`
		Edges     [][2]int           `json:"edges"`
		Regions   []adjacency.Region `json:"regions"`
		Bottom    []int              `json:"bottom"`
		Junctions [][4]int           `json:"junctions"`
	}{p.Nodes, p.Edges, p.Regions, p.Bottom, p.Junctions}
	data, _ := json.Marshal(key)
	return cache.Hash(data)
}

func (p *Problem) pairs() []support.Pair {
	out := make([]support.Pair, len(p.Edges))
	for i, e := range p.Edges {
		out[i] = support.Pair{From: e[0], To: e[1]}
	}
	return out
}

func (p *Problem) junctions() []xjunction.Junction {
	out := make([]xjunction.Junction, len(p.Junctions))
	for i, j := range p.Junctions {
		out[i] = xjunction.Junction(j)
	}
	return out
}

// FromGraph builds a problem with explicit edges from a graph and set.
func FromGraph(name string, g *support.Graph, set *xjunction.Set) *Problem {
	p := &Problem{Name: name, Nodes: g.N()}
	for _, e := range g.Pairs() {
		p.Edges = append(p.Edges, [2]int{e.From, e.To})
	}
	if set != nil {
		for _, j := range set.Junctions() {
			p.Junctions = append(p.Junctions, [4]int(j))
		}
	}
	return p
}

// Clone returns a deep copy.
func (p *Problem) Clone() *Problem {
	c := *p
	c.Edges = slices.Clone(p.Edges)
	c.Bottom = slices.Clone(p.Bottom)
	c.Junctions = slices.Clone(p.Junctions)
	c.Regions = slices.Clone(p.Regions)
	for i := range c.Regions {
		c.Regions[i].Adjacent = slices.Clone(c.Regions[i].Adjacent)
		c.Regions[i].Shared = slices.Clone(c.Regions[i].Shared)
	}
	if p.Search != nil {
		s := *p.Search
		c.Search = &s
	}
	return &c
}
