package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DirectionalLight is the scene component describing a distant light such as the sun.
//
// It has no position. Its direction comes from the rotation of the owning entity's transform
// (see DirectionFromRotation), so the same light can be aimed by rotating the entity.
// Only the first DirectionalLight in a scene is rendered and casts cascaded shadows.
type DirectionalLight struct {
	// Radiance is the linear RGB color of the light.
	Radiance mgl32.Vec3

	// Intensity scales Radiance.
	Intensity float32

	// LightSize is the apparent size of the light used to widen soft shadow penumbrae.
	LightSize float32

	// ShadowAmount is how dark fully shadowed fragments become, from 0 (no shadow) to 1 (black).
	ShadowAmount float32

	CastShadows bool
	SoftShadows bool

	// CascadeSplitLambda blends logarithmic (1) and uniform (0) cascade split distribution.
	CascadeSplitLambda float32
}

// NewDirectionalLight creates a new DirectionalLight with the provided options.
// Unset fields take the defaults: white radiance, intensity 1, light size 0.5, shadow amount 1,
// shadow casting with soft shadows and a split lambda of 0.95.
//
// Parameters:
//   - options: variadic list of DirectionalLightBuilderOption functions to configure the light
//
// Returns:
//   - *DirectionalLight: the configured light component
func NewDirectionalLight(options ...DirectionalLightBuilderOption) *DirectionalLight {
	l := &DirectionalLight{
		Radiance:           mgl32.Vec3{1, 1, 1},
		Intensity:          1,
		LightSize:          0.5,
		ShadowAmount:       1,
		CastShadows:        true,
		SoftShadows:        true,
		CascadeSplitLambda: DefaultCascadeSplitLambda,
	}

	for _, opt := range options {
		opt(l)
	}
	return l
}
