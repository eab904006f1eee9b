package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/core/tree"
	"github.com/matzehuels/supportree/pkg/core/xjunction"
	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/observability"
	"github.com/matzehuels/supportree/pkg/problem"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it does not keep
// results. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs build → enumerate → validate for p, with caching.
func (r *Runner) Execute(ctx context.Context, p *problem.Problem, opts Options) (*problem.Result, error) {
	opts.Merge(p.Search)
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	built, err := p.Build()
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("built problem",
		"nodes", built.Graph.N(),
		"edges", built.Graph.Len(),
		"junctions", built.Junctions.Len())

	hash := p.Hash()
	key := r.Keyer.ResultKey(hash, opts.ResultKeyOpts())
	if !opts.Refresh {
		if res, ok := r.lookup(ctx, key); ok {
			res.Name = p.Name
			opts.Logger.Info("using cached result", "run", res.ID, "trees", len(res.Trees))
			return res, nil
		}
	}

	res := &problem.Result{
		ID:          uuid.NewString(),
		Name:        p.Name,
		ProblemHash: hash,
		Nodes:       built.Graph.N(),
		Edges:       built.Graph.Pairs(),
		Junctions:   junctionArrays(built.Junctions),
		Adjacency:   built.Adjacency,
		CreatedAt:   time.Now().UTC(),
	}

	final, err := r.enumerate(ctx, built, opts, res)
	if err != nil {
		return nil, err
	}
	res.Bounds = final.bounds
	res.Candidates = len(final.trees)

	res.Trees, err = r.Validate(ctx, built.Graph.N(), built.Junctions, final.trees, opts.Workers)
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("validated trees",
		"candidates", res.Candidates,
		"valid", len(res.Trees),
		"bounds", res.Bounds)

	r.store(ctx, key, res)
	return res, nil
}

// enumerate runs the fixed or escalating search and records every attempt
// in res.
func (r *Runner) enumerate(ctx context.Context, b *problem.Built, opts Options, res *problem.Result) (attempt, error) {
	search := func(bounds support.Bounds) (attempt, error) {
		a, err := r.search(ctx, b, bounds, opts)
		if err != nil {
			return a, err
		}
		res.Attempts = append(res.Attempts, problem.Attempt{Bounds: a.bounds, Candidates: len(a.trees), Stats: a.stats})
		res.Stats.Add(a.stats)
		return a, nil
	}

	if !opts.Escalating() {
		return search(opts.Bounds(b.Graph.N()))
	}
	final, _, err := opts.Escalation.run(b.Graph.N(), search)
	return final, err
}

// search runs one bounded enumeration. Cancellation of ctx is noticed at the
// next emitted tree.
func (r *Runner) search(ctx context.Context, b *problem.Built, bounds support.Bounds, opts Options) (attempt, error) {
	limit := opts.MaxCandidates
	hooks := observability.Search()
	hooks.OnEnumerateStart(ctx, b.Graph.N(), bounds)
	start := time.Now()

	a := attempt{bounds: bounds}
	stats, err := b.Graph.EnumerateFunc(b.Junctions, bounds, func(t []support.Pair) bool {
		a.trees = append(a.trees, t)
		if ctx.Err() != nil {
			return false
		}
		return limit == 0 || len(a.trees) < limit
	})
	if err != nil {
		return a, errors.Wrap(errors.ErrCodeInvalidGraph, err, "enumerate")
	}
	if err := ctx.Err(); err != nil {
		return a, err
	}
	a.stats = stats

	elapsed := time.Since(start)
	hooks.OnEnumerateComplete(ctx, stats, elapsed)
	opts.Logger.Debug("searched",
		"bounds", bounds,
		"candidates", len(a.trees),
		"explored", stats.Explored,
		"pruned", stats.PrunedJunction,
		"duration", elapsed)
	return a, nil
}

// Validate checks candidates against set using up to workers goroutines.
// Accepted trees keep candidate order and are numbered from zero.
func (r *Runner) Validate(ctx context.Context, n int, set *xjunction.Set, candidates [][]support.Pair, workers int) ([]problem.TreeRecord, error) {
	start := time.Now()
	type checked struct {
		tree   *tree.Tree
		report tree.Report
	}
	results := make([]checked, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, edges := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := tree.New(n, edges)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "candidate %d", i)
			}
			rep, err := tree.Validate(t, set)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidJunction, err, "validate candidate %d", i)
			}
			results[i] = checked{tree: t, report: rep}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []problem.TreeRecord
	for i, c := range results {
		if c.report.Valid {
			out = append(out, problem.NewTreeRecord(len(out), i, c.tree, c.report))
		}
	}
	observability.Search().OnValidateComplete(ctx, len(candidates), len(out), time.Since(start))
	return out, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (*problem.Result, bool) {
	var (
		data []byte
		hit  bool
	)
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		r.Logger.Warn("cache lookup failed", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "result")
		return nil, false
	}
	res, err := problem.UnmarshalResult(data)
	if err != nil {
		// Stale entry from an older format; recompute.
		r.Logger.Debug("discarding cached result", "error", err)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "result")
	res.Cached = true
	return res, true
}

func (r *Runner) store(ctx context.Context, key string, res *problem.Result) {
	data, err := problem.MarshalResult(res)
	if err != nil {
		r.Logger.Warn("encode result for cache", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLResult); err != nil {
		r.Logger.Warn("cache store failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "result", len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func junctionArrays(set *xjunction.Set) [][4]int {
	var out [][4]int
	for _, j := range set.Junctions() {
		out = append(out, [4]int(j))
	}
	return out
}
