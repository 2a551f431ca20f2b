// Package loader implements the glTF 2.0 asset pipeline: container
// detection and pre-validation, wire parsing (delegated to
// github.com/qmuntal/gltf), buffer and accessor resolution, scene graph
// construction, transform propagation, skin and skeleton assembly, mesh,
// material and animation extraction, and final validation. A load either
// publishes a fully validated *scene.Scene or fails with a classified
// error; callers never see a partially built scene.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// FileResolver resolves a relative reference from an asset (an external
// buffer or image) into raw bytes. Implementations report missing files
// with an error; the pipeline treats every resolver failure as a local,
// non-fatal condition.
type FileResolver interface {
	// Resolve returns the bytes behind ref, interpreted relative to
	// baseDir.
	Resolve(baseDir, ref string) ([]byte, error)
}

// OSFileResolver resolves references against the local filesystem.
type OSFileResolver struct{}

var _ FileResolver = OSFileResolver{}

// Resolve reads baseDir/ref from disk.
func (OSFileResolver) Resolve(baseDir, ref string) ([]byte, error) {
	return os.ReadFile(filepath.Join(baseDir, filepath.Clean(ref)))
}

// TextureLoader turns a texture's raw encoded payload into an opaque
// handle. The pipeline stores the handle without inspecting it.
type TextureLoader interface {
	// Load produces a handle for the texture at the given table index. The
	// texture's Data field holds the encoded payload.
	Load(index int, t *scene.Texture) (any, error)
}

// Loader loads scene assets and keeps the resulting scenes in a registry
// keyed by name. The load pipeline itself is single-threaded and
// synchronous; only the registry is guarded for concurrent readers.
type Loader interface {
	// Load reads and processes the asset at the given path. The scene is
	// registered under the file's base name without extension.
	//
	// Parameters:
	//   - path: filesystem path of a .gltf or .glb asset
	//
	// Returns:
	//   - *scene.Scene: the published scene, nil on failure
	//   - error: a classified *Error on failure
	Load(path string) (*scene.Scene, error)

	// LoadData processes an in-memory payload. baseDir is used only to
	// resolve references to sibling binary blobs.
	LoadData(data []byte, name, baseDir string) (*scene.Scene, error)

	// LoadReader drains r and processes the payload like LoadData.
	LoadReader(r io.Reader, name, baseDir string) (*scene.Scene, error)

	// Get returns a previously loaded scene by name.
	Get(name string) (*scene.Scene, bool)

	// Scenes lists the names of all registered scenes.
	Scenes() []string

	// Unload removes a scene from the registry.
	Unload(name string)

	// LastError returns the error of the most recent load, nil when it
	// succeeded.
	LastError() error

	// Valid reports whether a scene with the given name was published.
	Valid(name string) bool

	// Options returns the pipeline settings in effect.
	Options() LoadOptions
}

type loaderImpl struct {
	mu     sync.RWMutex
	scenes map[string]*scene.Scene

	resolver FileResolver
	textures TextureLoader
	diags    *diag.Context
	opts     LoadOptions

	lastErr error
}

var _ Loader = &loaderImpl{}

// Load implements Loader.
func (l *loaderImpl) Load(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		lerr := wrapError(KindMissingRequiredData, err, "reading %s", path)
		l.setLastError(lerr)
		return nil, lerr
	}
	return l.LoadData(data, assetName(path), filepath.Dir(path))
}

// LoadData implements Loader.
func (l *loaderImpl) LoadData(data []byte, name, baseDir string) (*scene.Scene, error) {
	s, err := l.process(data, name, baseDir)
	l.setLastError(err)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.scenes[name] = s
	l.mu.Unlock()
	return s, nil
}

// LoadReader implements Loader.
func (l *loaderImpl) LoadReader(r io.Reader, name, baseDir string) (*scene.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		lerr := wrapError(KindCorruptedBuffer, err, "reading payload for %s", name)
		l.setLastError(lerr)
		return nil, lerr
	}
	return l.LoadData(data, name, baseDir)
}

// Get implements Loader.
func (l *loaderImpl) Get(name string) (*scene.Scene, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.scenes[name]
	return s, ok
}

// Scenes implements Loader.
func (l *loaderImpl) Scenes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.scenes))
	for name := range l.scenes {
		names = append(names, name)
	}
	return names
}

// Unload implements Loader.
func (l *loaderImpl) Unload(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.scenes, name)
}

// LastError implements Loader.
func (l *loaderImpl) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Valid implements Loader.
func (l *loaderImpl) Valid(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Options implements Loader.
func (l *loaderImpl) Options() LoadOptions {
	return l.opts
}

func (l *loaderImpl) setLastError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		l.lastErr = nil
		return
	}
	l.lastErr = err
}

// process runs the full pipeline on one payload. Any panic below this
// frame is converted into a library error; nothing escapes the load call.
func (l *loaderImpl) process(data []byte, name, baseDir string) (s *scene.Scene, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = newError(KindLibraryError, "panic during load of %s: %v", name, r)
			l.diags.Error("load panicked", zap.String("asset", name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	l.diags.ResetLocalErrors()
	l.diags.Debug("loading asset", zap.String("asset", name), zap.Int("bytes", len(data)))

	// Checkpoint 1: cheap structural pre-validation of the container.
	if _, perr := preValidate(data); perr != nil {
		return nil, perr
	}

	doc, perr := parseDocument(data)
	if perr != nil {
		return nil, perr
	}

	buffers := loadBuffers(doc, baseDir, l.resolver, l.diags)
	// The decoder's buffer table is re-pointed at the resolved bytes so
	// view reads (images) and accessor reads agree on one source.
	for i := range doc.Buffers {
		doc.Buffers[i].Data = buffers[i]
	}
	resolver := &accessorResolver{doc: doc, buffers: buffers}

	nodes, perr := buildNodes(doc)
	if perr != nil {
		return nil, perr
	}
	scene.ComputeWorldTransforms(nodes)

	meshes, perr := extractMeshes(doc, resolver, l.opts, l.diags)
	if perr != nil {
		return nil, perr
	}

	skins, perr := buildSkins(doc, resolver, len(nodes))
	if perr != nil {
		return nil, perr
	}

	out := &scene.Scene{
		Name:               name,
		Nodes:              nodes,
		Meshes:             meshes,
		Materials:          extractMaterials(doc),
		Textures:           extractTextures(doc, baseDir, l.resolver, l.textures, l.opts, l.diags),
		Skins:              skins,
		Buffers:            buffers,
		AnimationTolerance: l.opts.AnimationTolerance,
	}
	buildSkeleton(out)
	out.Animations = extractAnimations(doc, resolver, len(nodes), l.diags)

	// Checkpoint 2: semantic validation over the fully built scene.
	if l.opts.ValidateOnLoad {
		if verr := validateProcessed(doc, out); verr != nil {
			return nil, verr
		}
	}

	used := out.MeasureBytes()
	if l.opts.MaxMemoryBytes > 0 && used > l.opts.MaxMemoryBytes {
		return nil, newError(KindResourceLimit, "scene uses %d bytes, cap is %d", used, l.opts.MaxMemoryBytes)
	}

	out.SetStats(scene.Stats{
		BytesUsed:    used,
		LoadDuration: time.Since(start),
	})

	l.diags.Info("asset loaded",
		zap.String("asset", name),
		zap.Int("meshes", len(out.Meshes)),
		zap.Int("animations", len(out.Animations)),
		zap.Int("bones", out.BoneCount()),
		zap.Int("localErrors", l.diags.LocalErrors()),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// assetName derives the registry name from a path: base name without
// extension.
func assetName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return fmt.Sprintf("asset_%d", time.Now().UnixNano())
	}
	return base
}
