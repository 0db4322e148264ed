// Package loader imports glTF 2.0 assets into GPU meshes, images, samplers and materials and
// instantiates their node trees as scene entities.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/logger"
	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedExtension is returned when a file is neither .gltf nor .glb.
	ErrUnsupportedExtension = errors.New("unsupported model file extension")

	// ErrNoScene is reported when an asset has no scene to instantiate; its root entity stays empty.
	ErrNoScene = errors.New("asset has no scene")
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	device   gpu.Device
	log      *zap.Logger
	workers  int
	pool     worker.DynamicWorkerPool
	importer *gltfImporter

	cache map[string]*gltfAsset
}

// Loader imports glTF assets and keeps the imported GPU resources cached by path, so loading the
// same asset again only creates new entities that share the cached meshes and materials.
type Loader interface {
	// Load imports the asset at path, or reuses the cached import, and adds its node tree to s.
	// Only an unsupported extension or an unreadable file fails the call; problems with individual
	// images, samplers or primitives are logged and replaced by placeholders.
	//
	// Parameters:
	//   - path: the .gltf or .glb file
	//   - s: the scene receiving the entities
	//
	// Returns:
	//   - scene.Entity: the root entity named after the file, or scene.NullEntity on failure
	//   - error: ErrUnsupportedExtension or a wrapped decode error
	Load(path string, s *scene.Scene) (scene.Entity, error)

	// LoadDocument imports an already decoded document and caches it under name.
	// External image URIs resolve relative to the directory of name.
	//
	// Parameters:
	//   - name: the cache key and root entity name
	//   - doc: the document with its buffers loaded
	//   - s: the scene receiving the entities
	//
	// Returns:
	//   - scene.Entity: the root entity
	//   - error: an error if doc is nil
	LoadDocument(name string, doc *gltf.Document, s *scene.Scene) (scene.Entity, error)

	// Reload drops the cached import of path so the next Load reads the file again.
	// Entities created from the old import keep their meshes, materials and textures until they
	// are destroyed.
	Reload(path string)

	// Cached reports whether path has a cached import.
	Cached(path string) bool

	// Paths returns the cached asset paths in sorted order.
	Paths() []string

	// Release drops every cached import.
	Release()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader that uploads through device, with the provided options applied.
//
// Parameters:
//   - device: the device receiving the imported resources
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(device gpu.Device, options ...LoaderBuilderOption) Loader {
	l := &loader{
		device:  device,
		log:     logger.Named("loader"),
		workers: max(runtime.NumCPU()-1, 1),
		cache:   make(map[string]*gltfAsset),
	}

	for _, option := range options {
		option(l)
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	l.importer = &gltfImporter{device: l.device, pool: l.pool, log: l.log}
	return l
}

func (l *loader) Load(path string, s *scene.Scene) (scene.Entity, error) {
	key := filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(key))
	if ext != ".gltf" && ext != ".glb" {
		err := fmt.Errorf("%s: %w", path, ErrUnsupportedExtension)
		l.log.Error("cannot load asset", zap.String("asset", path), zap.Error(err))
		return scene.NullEntity, err
	}

	l.mu.RLock()
	a, ok := l.cache[key]
	l.mu.RUnlock()

	if !ok {
		start := time.Now()
		doc, err := gltf.Open(key)
		if err != nil {
			err = fmt.Errorf("failed to open %s: %w", path, err)
			l.log.Error("cannot load asset", zap.String("asset", path), zap.Error(err))
			return scene.NullEntity, err
		}
		a = l.store(key, l.importer.importDocument(doc, key, filepath.Dir(key)))
		l.log.Info("imported asset",
			zap.String("asset", key),
			zap.Int("meshes", len(a.meshes)),
			zap.Int("materials", len(a.materials)),
			zap.Int("images", len(a.textures.Images)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	return l.importer.instantiate(a, s), nil
}

func (l *loader) LoadDocument(name string, doc *gltf.Document, s *scene.Scene) (scene.Entity, error) {
	if doc == nil {
		return scene.NullEntity, fmt.Errorf("%s: %w", name, ErrNoScene)
	}

	l.mu.RLock()
	a, ok := l.cache[name]
	l.mu.RUnlock()
	if !ok {
		a = l.store(name, l.importer.importDocument(doc, name, filepath.Dir(name)))
	}
	return l.importer.instantiate(a, s), nil
}

// store caches a under key unless another import won the race, in which case a is released and
// the cached import is returned.
func (l *loader) store(key string, a *gltfAsset) *gltfAsset {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.cache[key]; ok {
		a.release()
		return existing
	}
	l.cache[key] = a
	return a
}

func (l *loader) Reload(path string) {
	key := filepath.Clean(path)

	l.mu.Lock()
	a, ok := l.cache[key]
	delete(l.cache, key)
	l.mu.Unlock()

	if ok {
		a.release()
		l.log.Info("dropped cached asset", zap.String("asset", key))
	}
}

func (l *loader) Cached(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cache[filepath.Clean(path)]
	return ok
}

func (l *loader) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := make([]string, 0, len(l.cache))
	for p := range l.cache {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

func (l *loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, a := range l.cache {
		a.release()
		delete(l.cache, key)
	}
}
