package renderer

import (
	"github.com/Carmen-Shannon/tsuki-go/engine/light"
	"go.uber.org/zap"
)

// SceneRendererBuilderOption is a functional option for configuring a SceneRenderer via NewSceneRenderer.
type SceneRendererBuilderOption func(*sceneRenderer)

// WithFramesInFlight sets the number of frames that may be recorded before the first completes.
// Each frame owns a uniform buffer and, when drawing offscreen, an image.
//
// Parameters:
//   - frames: the frame count; values below 1 are ignored
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the frame count option to a renderer
func WithFramesInFlight(frames int) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		if frames > 0 {
			r.frames = frames
		}
	}
}

// WithShadowResolution sets the width and height of each shadow cascade layer.
//
// Parameters:
//   - resolution: the layer size in texels; zero is ignored
//
// Returns:
//   - SceneRendererBuilderOption: a function that applies the shadow resolution option to a renderer
func WithShadowResolution(resolution uint32) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		if resolution > 0 {
			r.shadowResolution = resolution
		}
	}
}

// WithCascadeCount sets the number of shadow cascades, clamped to [1, light.MaxCascades].
func WithCascadeCount(count int) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.cascadeCount = min(max(count, 1), light.MaxCascades)
	}
}

// WithDrawToSwapchain selects the swapchain (true) or per-frame offscreen images (false) as the target.
func WithDrawToSwapchain(drawToSwapchain bool) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.drawToSwapchain = drawToSwapchain
	}
}

// WithImageSize sets the size of the offscreen images.
func WithImageSize(width, height uint32) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.width, r.height = width, height
	}
}

// WithPersistentDepth stores the scene depth buffer at the end of each frame.
func WithPersistentDepth(persistent bool) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		r.persistentDepth = persistent
	}
}

// WithLogger replaces the renderer's logger.
func WithLogger(log *zap.Logger) SceneRendererBuilderOption {
	return func(r *sceneRenderer) {
		if log != nil {
			r.log = log
		}
	}
}
