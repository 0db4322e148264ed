package engine

import (
	"github.com/Carmen-Shannon/tsuki-go/engine/camera"
	"github.com/Carmen-Shannon/tsuki-go/engine/config"
	"github.com/Carmen-Shannon/tsuki-go/engine/loader"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer"
	"github.com/Carmen-Shannon/tsuki-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig applies viewer settings: renderer and shadow settings, debug toggles, hot reload and
// FPS logging. Options given after WithConfig override what it sets.
//
// Parameters:
//   - cfg: the viewer configuration; nil is ignored
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg *config.Config) EngineBuilderOption {
	return func(e *engine) {
		if cfg == nil {
			return
		}
		e.cfg = cfg
		e.hotReload = cfg.Assets.HotReload
		e.profilingEnabled.Store(cfg.Renderer.ShowFPS)
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = interval(fps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to leave the render loop uncapped (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps > 0 {
			e.renderFrameLimit.Store(int64(interval(fps)))
		}
	}
}

// WithWindow sets the window the engine renders into and takes input from.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithHotReload watches loaded asset files and re-imports them when they change.
func WithHotReload(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.hotReload = enabled
	}
}

// WithCameraController replaces the default fly controller.
func WithCameraController(cc camera.CameraController) EngineBuilderOption {
	return func(e *engine) {
		if cc != nil {
			e.controller = cc
		}
	}
}

// WithRendererOptions passes extra options to the scene renderer. They are applied after the
// settings taken from the config.
func WithRendererOptions(options ...renderer.SceneRendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithLoaderOptions passes options to the asset loader.
func WithLoaderOptions(options ...loader.LoaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.loaderOptions = append(e.loaderOptions, options...)
	}
}

// WithFramesInFlight overrides the configured number of frames recorded ahead of the GPU.
func WithFramesInFlight(frames int) EngineBuilderOption {
	return func(e *engine) {
		if frames > 0 {
			e.frames = frames
		}
	}
}
