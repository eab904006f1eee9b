package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/observability"
	"github.com/matzehuels/supportree/pkg/problem"
	"github.com/matzehuels/supportree/pkg/render/dot"
)

// RenderTree renders accepted tree index of res in the given format, with
// caching keyed by run id.
func (r *Runner) RenderTree(ctx context.Context, res *problem.Result, index int, format string) ([]byte, error) {
	data, _, err := r.RenderTreeWithCacheInfo(ctx, res, index, format)
	return data, err
}

// RenderTreeWithCacheInfo renders like [Runner.RenderTree] and reports
// whether the artifact came from the cache.
func (r *Runner) RenderTreeWithCacheInfo(ctx context.Context, res *problem.Result, index int, format string) ([]byte, bool, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}
	if index < 0 || index >= len(res.Trees) {
		return nil, false, errors.New(errors.ErrCodeTreeNotFound, "tree %d not in run %s (have %d)", index, res.ID, len(res.Trees))
	}

	key := r.Keyer.RenderKey(res.ID, cache.RenderKeyOpts{Tree: index, Format: format})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	data, err := RenderTree(ctx, res, index, format)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err == nil {
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}

// RenderTree renders without caching.
func RenderTree(ctx context.Context, res *problem.Result, index int, format string) ([]byte, error) {
	if format == FormatJSON {
		if index < 0 || index >= len(res.Trees) {
			return nil, errors.New(errors.ErrCodeTreeNotFound, "tree %d not in run %s", index, res.ID)
		}
		data, err := json.MarshalIndent(res.Trees[index], "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode tree %d", index)
		}
		return data, nil
	}

	t, err := res.Tree(index)
	if err != nil {
		return nil, err
	}
	set, err := res.JunctionSet()
	if err != nil {
		return nil, err
	}
	src := dot.ToDOT(t, dot.Options{Junctions: set, Detailed: true})

	switch format {
	case FormatDOT:
		return []byte(src), nil
	case FormatSVG:
		svg, err := dot.RenderSVG(ctx, src)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return svg, nil
	default:
		return nil, ValidateFormat(format)
	}
}
