package cache

// ScopedKeyer wraps a Keyer with a fixed prefix so several deployments can
// share one backend without colliding:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "reefgrid:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DocumentKey(sourceHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(sourceHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, opts)
}
