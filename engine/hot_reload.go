package engine

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// assetInstance is one root entity instantiated from an asset file. The transform survives reloads;
// root is NullEntity while the file fails to import.
type assetInstance struct {
	root      scene.Entity
	transform scene.Transform
}

// assetWatcher collects writes to files in the directories of loaded assets.
type assetWatcher struct {
	log     *zap.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	dirs    map[string]bool
	pending map[string]bool

	done chan struct{}
}

func newAssetWatcher(log *zap.Logger) (*assetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create asset watcher: %w", err)
	}
	aw := &assetWatcher{
		log:     log,
		watcher: w,
		dirs:    make(map[string]bool),
		pending: make(map[string]bool),
		done:    make(chan struct{}),
	}
	go aw.run()
	return aw, nil
}

func (aw *assetWatcher) run() {
	defer close(aw.done)
	for {
		select {
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			aw.mu.Lock()
			aw.pending[filepath.Clean(event.Name)] = true
			aw.mu.Unlock()
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.log.Warn("asset watcher error", zap.Error(err))
		}
	}
}

// watch starts watching the directory holding path.
func (aw *assetWatcher) watch(path string) {
	dir := filepath.Dir(path)

	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.dirs[dir] {
		return
	}
	if err := aw.watcher.Add(dir); err != nil {
		aw.log.Warn("cannot watch asset directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	aw.dirs[dir] = true
}

// drain clears the changed files and maps them to the loaded assets to reload. A changed asset file
// reloads itself; any other changed file (a texture or .bin buffer) reloads every asset in its
// directory.
func (aw *assetWatcher) drain(loaded []string) []string {
	aw.mu.Lock()
	changed := aw.pending
	aw.pending = make(map[string]bool)
	aw.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}

	var reload []string
	for _, asset := range loaded {
		if changed[asset] {
			reload = append(reload, asset)
			continue
		}
		dir := filepath.Dir(asset)
		for file := range changed {
			if filepath.Dir(file) == dir {
				reload = append(reload, asset)
				break
			}
		}
	}
	slices.Sort(reload)
	return reload
}

func (aw *assetWatcher) close() {
	if err := aw.watcher.Close(); err != nil {
		aw.log.Warn("failed to close asset watcher", zap.Error(err))
	}
	<-aw.done
}

func (e *engine) Load(path string) (scene.Entity, error) {
	key := filepath.Clean(path)

	e.mu.Lock()
	root, err := e.loader.Load(key, e.scene)
	if err != nil {
		e.mu.Unlock()
		return scene.NullEntity, err
	}
	e.assets[key] = append(e.assets[key], assetInstance{root: root, transform: *e.scene.Transform(root)})
	e.mu.Unlock()

	if e.watcher != nil {
		e.watcher.watch(key)
	}
	return root, nil
}

func (e *engine) ReloadAssets() {
	for _, path := range e.assetPaths() {
		e.reloadAsset(path)
	}
}

// assetPaths returns the loaded asset files in sorted order.
func (e *engine) assetPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	paths := make([]string, 0, len(e.assets))
	for p := range e.assets {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// reloadAsset replaces every instance of the asset at path with a fresh import from disk. Each new
// root takes the transform of the root it replaces.
func (e *engine) reloadAsset(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	instances := e.assets[path]
	for i := range instances {
		if t := e.scene.Transform(instances[i].root); t != nil {
			instances[i].transform = *t
		}
		e.scene.DestroyEntity(instances[i].root)
		instances[i].root = scene.NullEntity
	}
	e.loader.Reload(path)

	for i := range instances {
		root, err := e.loader.Load(path, e.scene)
		if err != nil {
			e.log.Error("failed to reload asset", zap.String("asset", path), zap.Error(err))
			return
		}
		*e.scene.Transform(root) = instances[i].transform
		instances[i].root = root
	}
	e.log.Info("reloaded asset", zap.String("asset", path), zap.Int("instances", len(instances)))
}
