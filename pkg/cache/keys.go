package cache

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Width   float64 `json:"width"`
	Legend  bool    `json:"legend,omitempty"`
	Links   bool    `json:"links,omitempty"`
	Options string  `json:"options,omitempty"` // routing options fingerprint
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey keys a rendered artifact of the descriptor with the given hash.
	ArtifactKey(descriptorHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key parts under a type prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<hash>".
func (DefaultKeyer) ArtifactKey(descriptorHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", descriptorHash, opts)
}

// ScopedKeyer prefixes every key, separating deployments that share one
// Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey returns the prefixed inner key.
func (k *ScopedKeyer) ArtifactKey(descriptorHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(descriptorHash, opts)
}
