package loader

import (
	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// LoaderOption configures a Loader during construction.
type LoaderOption func(*loaderImpl)

// WithFileResolver sets the collaborator used to resolve external buffer
// and image references. Defaults to the local filesystem.
func WithFileResolver(r FileResolver) LoaderOption {
	return func(l *loaderImpl) {
		l.resolver = r
	}
}

// WithTextureLoader sets the collaborator that turns texture payloads into
// opaque handles. Without one, textures keep their raw payload and a nil
// handle.
func WithTextureLoader(t TextureLoader) LoaderOption {
	return func(l *loaderImpl) {
		l.textures = t
	}
}

// WithDiagnostics sets the diagnostics context the pipeline reports
// through. Defaults to none.
func WithDiagnostics(dc *diag.Context) LoaderOption {
	return func(l *loaderImpl) {
		l.diags = dc
	}
}

// WithLoadOptions replaces the default pipeline settings.
func WithLoadOptions(opts LoadOptions) LoaderOption {
	return func(l *loaderImpl) {
		l.opts = opts
	}
}

// NewLoader creates a Loader with the given options applied over the
// defaults.
//
// Parameters:
//   - options: optional configuration functions
//
// Returns:
//   - Loader: the configured loader instance
func NewLoader(options ...LoaderOption) Loader {
	l := &loaderImpl{
		scenes:   make(map[string]*scene.Scene),
		resolver: OSFileResolver{},
		opts:     DefaultLoadOptions(),
	}
	for _, opt := range options {
		opt(l)
	}
	l.opts.sanitize()
	return l
}
