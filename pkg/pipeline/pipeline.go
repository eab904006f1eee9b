// Package pipeline runs the complete build → enumerate → validate pipeline
// for supportree.
//
// Both the CLI and the HTTP server go through a [Runner] so that caching,
// escalation and logging behave the same everywhere.
//
// # Stages
//
//  1. Build: turn a [problem.Problem] into a support graph and junction set
//  2. Enumerate: run the bounded search, either with fixed bounds or with
//     the escalation policy
//  3. Validate: check every candidate against the junction set, in parallel
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, p, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range res.Trees {
//	    fmt.Println(t.Edges)
//	}
//
// Rendered trees are produced from a stored result:
//
//	svg, err := runner.RenderTree(ctx, res, 0, pipeline.FormatSVG)
package pipeline

import (
	"io"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/problem"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultMaxDepth is the depth bound used with fixed bounds when neither
	// the caller nor the problem sets one. It matches the last depth the
	// escalation policy tries.
	DefaultMaxDepth = 8

	// DefaultMaxCandidates caps candidates per search. Zero means no cap.
	DefaultMaxCandidates = 0
)

// Render formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a render format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one run. This struct supports JSON serialization for
// API requests. Zero fields fall back to the problem's own search
// preferences, then to package defaults.
type Options struct {
	// MaxDepth and L1Quota fix the search bounds. Ignored when escalating.
	// An L1Quota of zero allows every region on the first level.
	MaxDepth int `json:"max_depth,omitempty"`
	L1Quota  int `json:"l1_quota,omitempty"`

	// Escalate selects the escalation policy. Nil means: use the problem's
	// preference, else escalate unless bounds were given.
	Escalate *bool `json:"escalate,omitempty"`

	// Escalation overrides [DefaultEscalation].
	Escalation *Escalation `json:"escalation,omitempty"`

	// MaxCandidates stops each search after this many trees.
	MaxCandidates int `json:"max_candidates,omitempty"`

	// Workers bounds parallel validation. Zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Merge fills zero fields of o from the problem's search preferences.
func (o *Options) Merge(s *problem.Search) {
	if s == nil {
		return
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = s.MaxDepth
	}
	if o.L1Quota == 0 {
		o.L1Quota = s.L1Quota
	}
	if o.Escalate == nil && s.Escalate != nil {
		v := *s.Escalate
		o.Escalate = &v
	}
	if o.MaxCandidates == 0 {
		o.MaxCandidates = s.MaxCandidates
	}
}

// Escalating reports whether the escalation policy applies.
func (o *Options) Escalating() bool {
	if o.Escalate != nil {
		return *o.Escalate
	}
	return o.MaxDepth == 0 && o.L1Quota == 0
}

// SetDefaults applies package defaults to zero fields.
func (o *Options) SetDefaults() {
	if o.Escalate == nil {
		v := o.Escalating()
		o.Escalate = &v
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Escalation == nil {
		e := DefaultEscalation()
		o.Escalation = &e
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option ranges. Call after [Options.SetDefaults].
func (o *Options) Validate() error {
	if o.MaxDepth < 1 || o.MaxDepth > errors.MaxTreeDepth {
		return errors.New(errors.ErrCodeInvalidBounds, "max depth must be in 1..%d, got %d", errors.MaxTreeDepth, o.MaxDepth)
	}
	if o.L1Quota < 0 {
		return errors.New(errors.ErrCodeInvalidBounds, "first-level quota must not be negative, got %d", o.L1Quota)
	}
	if o.MaxCandidates < 0 {
		return errors.New(errors.ErrCodeInvalidBounds, "max candidates must not be negative, got %d", o.MaxCandidates)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if o.Escalation != nil {
		return o.Escalation.Validate()
	}
	return nil
}

// Bounds resolves the fixed search bounds for a graph with n nodes.
func (o *Options) Bounds(n int) support.Bounds {
	quota := o.L1Quota
	if quota == 0 {
		quota = max(1, n-1)
	}
	return support.Bounds{MaxDepth: o.MaxDepth, L1Quota: quota}
}

// ResultKeyOpts returns cache key options for an enumeration result.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	if o.Escalating() {
		policy := DefaultEscalation()
		if o.Escalation != nil {
			policy = *o.Escalation
		}
		return cache.ResultKeyOpts{Escalate: true, Policy: policy.String(), MaxCandidates: o.MaxCandidates}
	}
	return cache.ResultKeyOpts{
		MaxDepth:      o.MaxDepth,
		L1Quota:       o.L1Quota,
		MaxCandidates: o.MaxCandidates,
	}
}
