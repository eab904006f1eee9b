package cache

// ScopedKeyer prefixes every key of an inner [Keyer], giving each server
// tenant its own namespace in a shared Redis.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "tenant:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResultKey implements [Keyer].
func (k *ScopedKeyer) ResultKey(problemHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(problemHash, opts)
}

// RenderKey implements [Keyer].
func (k *ScopedKeyer) RenderKey(runID string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(runID, opts)
}
