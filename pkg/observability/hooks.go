// Package observability routes search, cache and HTTP events to a metrics
// backend.
//
// Packages that do work call the accessors ([Search], [Cache], [HTTP]) and
// never import a metrics library themselves. Until a backend is installed the
// accessors return no-op hooks, so the CLI and unit tests record nothing.
//
//	reg := prometheus.NewRegistry()
//	hooks := observability.NewPrometheusHooks(reg)
//	observability.SetSearchHooks(hooks)
//	defer observability.Reset()
//
// A bounded search is bracketed by two events:
//
//	observability.Search().OnEnumerateStart(ctx, nodes, bounds)
//	observability.Search().OnEnumerateComplete(ctx, stats, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/supportree/pkg/core/support"
)

// SearchHooks observes enumeration and candidate validation.
type SearchHooks interface {
	// OnEnumerateStart fires before every bounded search, escalation steps
	// included.
	OnEnumerateStart(ctx context.Context, nodes int, bounds support.Bounds)
	OnEnumerateComplete(ctx context.Context, stats support.Stats, duration time.Duration)
	// OnValidateComplete fires once per run after all candidates are checked.
	OnValidateComplete(ctx context.Context, candidates, valid int, duration time.Duration)
}

// CacheHooks observes result and render cache traffic. keyType is "result"
// or "render".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes served API requests. route is the chi route pattern,
// not the raw path.
type HTTPHooks interface {
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopSearchHooks discards search events.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnEnumerateStart(context.Context, int, support.Bounds)             {}
func (NoopSearchHooks) OnEnumerateComplete(context.Context, support.Stats, time.Duration) {}
func (NoopSearchHooks) OnValidateComplete(context.Context, int, int, time.Duration)       {}

// NoopCacheHooks discards cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks discards HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

type registry struct {
	mu     sync.RWMutex
	search SearchHooks
	cache  CacheHooks
	http   HTTPHooks
}

var hooks = newRegistry()

func newRegistry() *registry {
	return &registry{search: NoopSearchHooks{}, cache: NoopCacheHooks{}, http: NoopHTTPHooks{}}
}

// SetSearchHooks installs h for all later [Search] calls. Nil is ignored.
func SetSearchHooks(h SearchHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.search = h
	hooks.mu.Unlock()
}

// SetCacheHooks installs h for all later [Cache] calls. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.cache = h
	hooks.mu.Unlock()
}

// SetHTTPHooks installs h for all later [HTTP] calls. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	hooks.mu.Lock()
	hooks.http = h
	hooks.mu.Unlock()
}

func Search() SearchHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.search
}

func Cache() CacheHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.cache
}

func HTTP() HTTPHooks {
	hooks.mu.RLock()
	defer hooks.mu.RUnlock()
	return hooks.http
}

// Reset puts the no-op hooks back.
func Reset() {
	fresh := newRegistry()
	hooks.mu.Lock()
	hooks.search, hooks.cache, hooks.http = fresh.search, fresh.cache, fresh.http
	hooks.mu.Unlock()
}
