// Package engine ties the window, GPU device, scene, asset loader and scene renderer together into
// the viewer's main loop.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/tsuki-go/engine/camera"
	"github.com/Carmen-Shannon/tsuki-go/engine/config"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/loader"
	"github.com/Carmen-Shannon/tsuki-go/engine/logger"
	"github.com/Carmen-Shannon/tsuki-go/engine/profiler"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer"
	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/Carmen-Shannon/tsuki-go/engine/window"
	"go.uber.org/zap"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine has no window")

// presenter is implemented by devices that draw into a window surface.
type presenter interface {
	ConfigureSurface(width, height uint32)
	AcquireSwapchainImage() error
	Present()
}

// engine implements the Engine interface.
// The tick loop and the render loop run on their own goroutines; the window message loop runs on
// the caller of Run. mu guards the scene, the input state, the tick rate and the asset bookkeeping,
// and frameMu serialises frames with surface reconfiguration.
type engine struct {
	log *zap.Logger
	cfg *config.Config

	mu      sync.Mutex
	frameMu sync.Mutex

	device   gpu.Device
	surface  presenter
	window   window.Window
	scene    *scene.Scene
	renderer renderer.SceneRenderer
	loader   loader.Loader

	rendererOptions []renderer.SceneRendererBuilderOption
	loaderOptions   []loader.LoaderBuilderOption

	frames     int
	frameIndex int

	controller camera.CameraController
	input      inputState

	assets    map[string][]assetInstance
	hotReload bool
	watcher   *assetWatcher

	tickRateChannel chan time.Duration
	engineTickRate  time.Duration
	tickCallback    func(s *scene.Scene, deltaTime float32)

	renderFrameLimit atomic.Int64

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	running     atomic.Bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine is the main entry point of the viewer.
// It owns the scene, loads assets into it, moves the camera from input and renders every frame.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// Scene returns the scene. Use Update to modify it while the engine runs.
	Scene() *scene.Scene

	// Renderer returns the scene renderer.
	Renderer() renderer.SceneRenderer

	// Loader returns the asset loader.
	Loader() loader.Loader

	// Update runs fn with exclusive access to the scene.
	//
	// Parameters:
	//   - fn: the function modifying the scene
	Update(fn func(s *scene.Scene))

	// SetupDefaultScene adds the viewer's camera, sun and (when configured) ground plane.
	//
	// Returns:
	//   - error: an error if the ground plane mesh could not be created
	SetupDefaultScene() error

	// Load imports an asset into the scene and, with hot reload on, watches its file.
	//
	// Parameters:
	//   - path: the .gltf or .glb file
	//
	// Returns:
	//   - scene.Entity: the asset's root entity, or scene.NullEntity on failure
	//   - error: the loader error
	Load(path string) (scene.Entity, error)

	// ReloadAssets re-imports every loaded asset from disk, keeping each root's transform.
	ReloadAssets()

	// EnableProfiler enables per-second frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// Camera movement, queued asset reloads and the tick callback run at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called each tick with the scene locked.
	//
	// Parameters:
	//   - callback: function receiving the scene and the delta time in seconds
	SetTickCallback(callback func(s *scene.Scene, deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RenderFrame records, submits and presents one frame.
	//
	// Returns:
	//   - error: a swapchain, recording or submission error
	RenderFrame() error

	// Run starts the tick and render loops and processes window messages until the window closes.
	//
	// Returns:
	//   - error: ErrNoWindow for a headless engine
	Run() error

	// Quit signals the engine goroutines to stop. Safe to call multiple times.
	Quit()

	// Release stops watching files and releases the scene, loader and renderer resources.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine drawing through device, with the provided options applied.
// When a window is set its resize and input events are wired to the surface, renderer and camera.
//
// Parameters:
//   - device: the GPU device; a gpu.SurfaceDevice also acquires and presents swapchain images
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: a renderer creation or file watcher error
func NewEngine(device gpu.Device, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		log:             logger.Named("engine"),
		cfg:             config.Default(),
		device:          device,
		scene:           scene.New(scene.WithName("Scene")),
		controller:      camera.NewCameraController(),
		assets:          make(map[string][]assetInstance),
		tickRateChannel: make(chan time.Duration, 1),
		engineTickRate:  interval(60),
		profiler:        profiler.NewProfiler(),
		quitChannel:     make(chan struct{}),
		input:           newInputState(),
	}
	if p, ok := device.(presenter); ok {
		e.surface = p
	}

	for _, opt := range options {
		opt(e)
	}
	if e.frames == 0 {
		e.frames = max(e.cfg.Renderer.FramesInFlight, 1)
	}

	r, err := renderer.NewSceneRenderer(device, append(e.configRendererOptions(), e.rendererOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scene renderer: %w", err)
	}
	e.renderer = r
	e.input.showCascades = e.cfg.Renderer.DebugShowCascades
	e.input.freeze = e.cfg.Renderer.FreezeFrustum
	e.renderer.SetDebugShowCascades(e.input.showCascades)
	e.renderer.SetFreezeFrustum(e.input.freeze)
	e.loader = loader.NewLoader(device, e.loaderOptions...)

	if e.hotReload {
		if e.watcher, err = newAssetWatcher(e.log); err != nil {
			e.Release()
			return nil, err
		}
	}

	if e.window != nil {
		e.wireWindow()
		e.resize(e.window.Width(), e.window.Height())
	}
	return e, nil
}

// configRendererOptions maps the renderer and shadow settings of the config onto renderer options.
func (e *engine) configRendererOptions() []renderer.SceneRendererBuilderOption {
	return []renderer.SceneRendererBuilderOption{
		renderer.WithFramesInFlight(e.frames),
		renderer.WithDrawToSwapchain(e.cfg.Renderer.DrawToSwapchain),
		renderer.WithPersistentDepth(e.cfg.Renderer.PersistentDepth),
		renderer.WithShadowResolution(e.cfg.Shadows.Resolution),
		renderer.WithCascadeCount(e.cfg.Shadows.CascadeCount),
	}
}

func (e *engine) wireWindow() {
	e.window.SetResizeCallback(e.resize)
	e.window.SetKeyDownCallback(e.keyDown)
	e.window.SetKeyUpCallback(e.keyUp)
	e.window.SetMouseButtonCallback(e.mouseButton)
	e.window.SetMouseMoveCallback(e.mouseMove)
}

// resize reconfigures the surface and the offscreen images for a new framebuffer size.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	if e.surface != nil {
		e.surface.ConfigureSurface(uint32(width), uint32(height))
	}
	if err := e.renderer.SetImageSize(uint32(width), uint32(height)); err != nil {
		e.log.Error("failed to resize scene images", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() *scene.Scene {
	return e.scene
}

func (e *engine) Renderer() renderer.SceneRenderer {
	return e.renderer
}

func (e *engine) Loader() loader.Loader {
	return e.loader
}

func (e *engine) Update(fn func(s *scene.Scene)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.scene)
}

func (e *engine) RenderFrame() error {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	if e.surface != nil {
		if err := e.surface.AcquireSwapchainImage(); err != nil {
			return fmt.Errorf("failed to acquire swapchain image: %w", err)
		}
		defer e.surface.Present()
	}

	cmd, err := e.device.BeginCommands()
	if err != nil {
		return err
	}

	e.mu.Lock()
	err = e.renderer.Render(cmd, e.scene, e.frameIndex)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	if err := e.device.Submit(cmd); err != nil {
		return fmt.Errorf("failed to submit frame %d: %w", e.frameIndex, err)
	}
	e.frameIndex = (e.frameIndex + 1) % e.frames
	return nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	e.window.Destroy()
	return nil
}

// Quit signals all engine goroutines to stop and closes the window.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop: camera movement, queued asset reloads and the tick
// callback. It listens for tick rate changes via tickRateChannel.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.engineTickRate
	e.mu.Unlock()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		}
	}
}

// tick advances the scene by dt seconds.
func (e *engine) tick(dt float32) {
	if e.watcher != nil {
		for _, path := range e.watcher.drain(e.assetPaths()) {
			e.reloadAsset(path)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.moveCamera(dt)
	if e.tickCallback != nil {
		e.tickCallback(e.scene, dt)
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// A panic inside a frame is logged and stops the engine instead of crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("render goroutine recovered from panic", zap.Any("panic", r))
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			start := time.Now()
			if err := e.RenderFrame(); err != nil {
				e.log.Warn("frame failed", zap.Error(err))
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick()
			}

			if limit := time.Duration(e.renderFrameLimit.Load()); limit > 0 {
				if remaining := limit - time.Since(start); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then asks the window to close so the message
// loop in Run returns.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
	if e.window != nil && e.window.IsRunning() {
		_ = e.window.Close()
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := interval(fps)

	e.mu.Lock()
	e.engineTickRate = newRate
	e.mu.Unlock()

	if !e.running.Load() {
		return
	}
	// Replace a pending update rather than block.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		select {
		case e.tickRateChannel <- newRate:
		default:
		}
	}
}

func (e *engine) SetTickCallback(callback func(s *scene.Scene, deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit.Store(0)
		return
	}
	e.renderFrameLimit.Store(int64(interval(fps)))
}

// interval returns the period of a rate given in events per second. Fractional rates are kept.
func interval(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) Release() {
	if e.watcher != nil {
		e.watcher.close()
		e.watcher = nil
	}

	e.mu.Lock()
	for _, root := range e.scene.RootEntities() {
		e.scene.DestroyEntity(root)
	}
	e.assets = make(map[string][]assetInstance)
	e.mu.Unlock()

	if e.loader != nil {
		e.loader.Release()
	}
	if e.renderer != nil {
		e.renderer.Release()
	}
}
