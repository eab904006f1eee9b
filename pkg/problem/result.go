package problem

import (
	"time"

	"github.com/matzehuels/supportree/pkg/core/adjacency"
	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/core/tree"
	"github.com/matzehuels/supportree/pkg/core/xjunction"
	"github.com/matzehuels/supportree/pkg/errors"
)

// Result is the output of a run.
type Result struct {
	ID          string            `json:"id" toml:"id" bson:"_id"`
	Name        string            `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	ProblemHash string            `json:"problem_hash" toml:"problem_hash" bson:"problem_hash"`
	Nodes       int               `json:"nodes" toml:"nodes" bson:"nodes"`
	Edges       []support.Pair    `json:"edges" toml:"edges" bson:"edges"`
	Junctions   [][4]int          `json:"junctions,omitempty" toml:"junctions,omitempty" bson:"junctions,omitempty"`
	Adjacency   *adjacency.Report `json:"adjacency,omitempty" toml:"adjacency,omitempty" bson:"adjacency,omitempty"`
	Bounds      support.Bounds    `json:"bounds" toml:"bounds" bson:"bounds"`
	Attempts    []Attempt         `json:"attempts" toml:"attempts" bson:"attempts"`
	Candidates  int               `json:"candidates" toml:"candidates" bson:"candidates"`
	Trees       []TreeRecord      `json:"trees" toml:"trees" bson:"trees"`
	Stats       support.Stats     `json:"stats" toml:"stats" bson:"stats"`
	CreatedAt   time.Time         `json:"created_at" toml:"created_at" bson:"created_at"`
	Cached      bool              `json:"cached,omitempty" toml:"-" bson:"-"`
}

// Attempt records one bounded search of a run.
type Attempt struct {
	Bounds     support.Bounds `json:"bounds" toml:"bounds" bson:"bounds"`
	Candidates int            `json:"candidates" toml:"candidates" bson:"candidates"`
	Stats      support.Stats  `json:"stats" toml:"stats" bson:"stats"`
}

// TreeRecord is one accepted tree.
type TreeRecord struct {
	Index       int               `json:"index" toml:"index" bson:"index"`
	Candidate   int               `json:"candidate" toml:"candidate" bson:"candidate"`
	Edges       []support.Pair    `json:"edges" toml:"edges" bson:"edges"`
	Depths      []int             `json:"depths" toml:"depths" bson:"depths"`
	Height      int               `json:"height" toml:"height" bson:"height"`
	Layers      [][]int           `json:"layers" toml:"layers" bson:"layers"`
	Resolutions []tree.Resolution `json:"resolutions,omitempty" toml:"resolutions,omitempty" bson:"resolutions,omitempty"`
}

// NewTreeRecord captures t as the index-th accepted tree, produced as the
// candidate-th search result.
func NewTreeRecord(index, candidate int, t *tree.Tree, rep tree.Report) TreeRecord {
	return TreeRecord{
		Index:       index,
		Candidate:   candidate,
		Edges:       t.Edges(),
		Depths:      t.Depths(),
		Height:      t.Height(),
		Layers:      t.Layers(),
		Resolutions: rep.Resolutions,
	}
}

// Tree rebuilds accepted tree i.
func (r *Result) Tree(i int) (*tree.Tree, error) {
	if i < 0 || i >= len(r.Trees) {
		return nil, errors.New(errors.ErrCodeTreeNotFound, "tree %d not in result (have %d)", i, len(r.Trees))
	}
	t, err := tree.New(r.Nodes, r.Trees[i].Edges)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild tree %d", i)
	}
	return t, nil
}

// JunctionSet rebuilds the junction set of the run.
func (r *Result) JunctionSet() (*xjunction.Set, error) {
	js := make([]xjunction.Junction, len(r.Junctions))
	for i, j := range r.Junctions {
		js[i] = xjunction.Junction(j)
	}
	set, err := xjunction.NewSet(r.Nodes, js)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidJunction, err, "junctions")
	}
	return set, nil
}

// Summary is the listing form of a result.
type Summary struct {
	ID         string         `json:"id" bson:"_id"`
	Name       string         `json:"name,omitempty" bson:"name,omitempty"`
	Nodes      int            `json:"nodes" bson:"nodes"`
	Bounds     support.Bounds `json:"bounds" bson:"bounds"`
	Candidates int            `json:"candidates" bson:"candidates"`
	Valid      int            `json:"valid" bson:"valid"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// Summary returns the listing form of r.
func (r *Result) Summary() Summary {
	return Summary{
		ID:         r.ID,
		Name:       r.Name,
		Nodes:      r.Nodes,
		Bounds:     r.Bounds,
		Candidates: r.Candidates,
		Valid:      len(r.Trees),
		CreatedAt:  r.CreatedAt,
	}
}
