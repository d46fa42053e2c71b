package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// backend, typically a Redis instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "hiergraph:shop:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) GraphKey(analysisHash string) string {
	return k.prefix + k.inner.GraphKey(analysisHash)
}

func (k *ScopedKeyer) ElementsKey(graphHash string, opts ElementsKeyOpts) string {
	return k.prefix + k.inner.ElementsKey(graphHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(elementsHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(elementsHash, opts)
}
