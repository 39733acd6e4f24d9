// Package assets indexes the asset directory, loads the quad shaders for a
// backend and reloads them when their files change.
package assets

import (
	_ "embed"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/assets/loaders"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

//go:embed shaders/quad.es.vert
var quadVertexES []byte

//go:embed shaders/quad.es.frag
var quadFragmentES []byte

const (
	shadersDir = "shaders"
	entryPoint = "main"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeSpirv
	AssetTypeShaderSource
)

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

type AssetManager struct {
	dir     string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	generation atomic.Uint64
	changed    chan struct{}
	done       chan struct{}
	fsnotify   *fsnotify.Watcher
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func NewAssetManager(dir string) *AssetManager {
	return &AssetManager{
		dir:    dir,
		assets: make(map[string]AssetInfo),
		loaders: map[AssetType]Loader{
			AssetTypeSpirv:        &loaders.SpirvLoader{},
			AssetTypeShaderSource: &loaders.ShaderLoader{},
		},
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Initialize indexes the asset directory. With watch set, shader files that
// are created or written afterwards bump the generation. A missing
// directory leaves the index empty.
func (am *AssetManager) Initialize(watch bool) error {
	if _, err := os.Stat(am.dir); errors.Is(err, os.ErrNotExist) {
		core.LogWarn("asset directory %s not found", am.dir)
		return nil
	}
	if err := am.index(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating asset watcher")
	}
	am.fsnotify = fsWatch
	if err := am.watchRecursive(am.dir); err != nil {
		fsWatch.Close()
		return err
	}
	am.wg.Add(1)
	go am.start()
	core.LogDebug("watching %s for shader changes", am.dir)
	return nil
}

// Generation counts shader file changes seen by the watcher.
func (am *AssetManager) Generation() uint64 { return am.generation.Load() }

// Changed receives a value after shader files changed. Changes that happen
// before the value is consumed are coalesced.
func (am *AssetManager) Changed() <-chan struct{} { return am.changed }

// Load reads the named file of the shaders directory.
func (am *AssetManager) Load(name string) (*loaders.Resource, error) {
	path := filepath.Join(shadersDir, name)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, errors.Wrapf(core.ErrShaderNotFound, "%s", filepath.Join(am.dir, path))
	}

	loader, ok := am.loaders[asset.Type]
	if !ok {
		return nil, errors.Errorf("no loader registered for asset type: %d", asset.Type)
	}
	res, err := loader.Load(filepath.Join(am.dir, path))
	if err != nil {
		return nil, err
	}
	res.Name = name
	return res, nil
}

// QuadShaders returns the vertex and fragment shader of the quad in the code
// format the backend consumes: SPIR-V compiled by `mage build:shaders` for
// Vulkan, GLSL ES source for OpenGL ES. GLSL ES files in the shaders
// directory override the embedded sources.
func (am *AssetManager) QuadShaders(backend metadata.GraphicsBackend) (vertex, fragment metadata.ShaderDescription, err error) {
	var vs, fs []byte
	switch backend {
	case metadata.GraphicsBackendVulkan:
		if vs, err = am.data("quad.vert.spv", nil); err != nil {
			return vertex, fragment, err
		}
		if fs, err = am.data("quad.frag.spv", nil); err != nil {
			return vertex, fragment, err
		}
	case metadata.GraphicsBackendOpenGLES:
		if vs, err = am.data("quad.es.vert", quadVertexES); err != nil {
			return vertex, fragment, err
		}
		if fs, err = am.data("quad.es.frag", quadFragmentES); err != nil {
			return vertex, fragment, err
		}
	default:
		return vertex, fragment, errors.Wrapf(core.ErrUnsupportedBackend, "no quad shaders for %s", backend)
	}

	vertex = metadata.ShaderDescription{Stage: metadata.ShaderStageVertex, Code: vs, EntryPoint: entryPoint}
	fragment = metadata.ShaderDescription{Stage: metadata.ShaderStageFragment, Code: fs, EntryPoint: entryPoint}
	return vertex, fragment, nil
}

// data loads name, or returns fallback when the file is not indexed and a
// fallback exists.
func (am *AssetManager) data(name string, fallback []byte) ([]byte, error) {
	res, err := am.Load(name)
	if errors.Is(err, core.ErrShaderNotFound) && fallback != nil {
		return fallback, nil
	}
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Shutdown stops the watcher.
func (am *AssetManager) Shutdown() error {
	am.closeOnce.Do(func() {
		close(am.done)
	})
	am.wg.Wait()
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleWatchEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %v", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleWatchEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogError("watching %s: %v", e.Name, err)
			}
		}
		return
	}

	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		if am.handleFileEvent(e.Name) {
			am.notify(e.Name)
		}
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		am.removeAsset(e.Name)
	}
}

func (am *AssetManager) notify(path string) {
	am.generation.Add(1)
	core.LogInfo("shader %s changed, reloading", path)
	select {
	case am.changed <- struct{}{}:
	default:
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) index() error {
	return filepath.Walk(am.dir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file. It reports whether the
// file is a known asset.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return false
	}
	rel, err := filepath.Rel(am.dir, path)
	if err != nil {
		return false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path: rel,
		Type: assetType,
	}
	return true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	rel, err := filepath.Rel(am.dir, path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, rel)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeSpirv
	case ".vert", ".frag", ".glsl":
		return AssetTypeShaderSource
	default:
		return AssetTypeNone
	}
}
