package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DirectionalLightBuilderOption is a function that configures a DirectionalLight during construction.
type DirectionalLightBuilderOption func(*DirectionalLight)

// WithRadiance is an option builder that sets the linear RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the radiance option
func WithRadiance(r, g, b float32) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.Radiance = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the intensity option
func WithIntensity(intensity float32) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.Intensity = intensity
	}
}

// WithLightSize sets the apparent light size used by soft shadows.
func WithLightSize(size float32) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.LightSize = size
	}
}

// WithShadowAmount is an option builder that sets how dark shadowed fragments become.
// The value is clamped to [0, 1].
//
// Parameters:
//   - amount: 0 disables shadow darkening, 1 makes shadows black
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the shadow amount option
func WithShadowAmount(amount float32) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.ShadowAmount = mgl32.Clamp(amount, 0, 1)
	}
}

// WithCastShadows toggles cascaded shadow rendering for the light.
func WithCastShadows(castShadows bool) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.CastShadows = castShadows
	}
}

// WithSoftShadows toggles percentage-closer soft shadow filtering.
func WithSoftShadows(soft bool) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.SoftShadows = soft
	}
}

// WithCascadeSplitLambda is an option builder that sets the cascade split distribution.
// The value is clamped to [0, 1].
//
// Parameters:
//   - lambda: 1 for fully logarithmic splits, 0 for uniform splits
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the lambda option
func WithCascadeSplitLambda(lambda float32) DirectionalLightBuilderOption {
	return func(l *DirectionalLight) {
		l.CascadeSplitLambda = mgl32.Clamp(lambda, 0, 1)
	}
}
