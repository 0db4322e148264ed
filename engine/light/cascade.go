package light

import (
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxCascades is the number of shadow cascades the scene uniform block has room for.
	MaxCascades = 4

	// ShadowMapResolution is the default width and height in texels of each cascade layer.
	ShadowMapResolution = 2048

	// DefaultCascadeSplitLambda leans the split distribution heavily towards logarithmic.
	DefaultCascadeSplitLambda float32 = 0.95

	// radiusSnap is the granularity the cascade radius is rounded up to.
	radiusSnap float32 = 16

	// verticalThreshold is the |dot(dir, +Y)| above which the light view switches its up vector.
	verticalThreshold float32 = 0.999
)

// Cascade is one slice of a cascaded shadow map.
type Cascade struct {
	// SplitDepth is the negated view-space depth at which this cascade ends.
	SplitDepth float32

	// ViewProjection maps world space into this cascade's light clip space.
	ViewProjection mgl32.Mat4
}

// CascadeInput holds everything the cascade fitter reads from the camera, light and scene.
type CascadeInput struct {
	// Count is clamped to [1, MaxCascades].
	Count int

	// Lambda is clamped to [0, 1].
	Lambda float32

	Near, Far float32

	// InverseViewProjection is the inverse of the camera's projection * view.
	InverseViewProjection mgl32.Mat4

	// LightDirection is the unit direction the light travels in.
	LightDirection mgl32.Vec3

	// SceneBounds clamps the frustum slices when valid. The zero value is a valid point box at the
	// origin and clamps every slice onto it; pass common.NewAABB() for no clamping.
	SceneBounds common.AABB
}

// CascadeSplits distributes count split points over the camera depth range, blending logarithmic
// and uniform spacing by lambda. Splits are normalized to [0, 1] with the last split at 1.
//
// Parameters:
//   - count: the number of cascades
//   - near: the camera near plane
//   - far: the camera far plane
//   - lambda: 1 for logarithmic, 0 for uniform spacing
//
// Returns:
//   - []float32: count increasing normalized split distances
func CascadeSplits(count int, near, far, lambda float32) []float32 {
	splits := make([]float32, count)
	depthRange := far - near
	for i := range splits {
		p := float32(i+1) / float32(count)
		if depthRange <= 0 || near <= 0 {
			splits[i] = p
			continue
		}
		logSplit := near * math32.Pow(far/near, p)
		uniformSplit := near + depthRange*p
		d := lambda*(logSplit-uniformSplit) + uniformSplit
		splits[i] = (d - near) / depthRange
	}
	return splits
}

// FitCascades computes a light view-projection matrix for each cascade.
//
// Each cascade covers the slice of the camera frustum between the previous split and its own. The
// slice corners are clamped into SceneBounds when those are valid, then enclosed in a sphere whose
// radius is rounded up to 1/16 of a unit. The light looks at the sphere center from one radius away
// against the light direction and projects orthographically over [-r, r] x [-r, r] x [0, 2r].
//
// Parameters:
//   - in: the camera, light and scene inputs
//
// Returns:
//   - []Cascade: one cascade per clamped Count
func FitCascades(in CascadeInput) []Cascade {
	count := min(max(in.Count, 1), MaxCascades)
	lambda := mgl32.Clamp(in.Lambda, 0, 1)
	splits := CascadeSplits(count, in.Near, in.Far, lambda)
	depthRange := in.Far - in.Near

	dir := in.LightDirection
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 0, -1}
	}
	dir = dir.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(dir.Dot(up)) > verticalThreshold {
		up = mgl32.Vec3{0, 0, 1}
	}

	world := common.FrustumCorners(in.InverseViewProjection)
	cascades := make([]Cascade, count)
	lastSplit := float32(0)
	for i, split := range splits {
		corners := sliceCorners(world, lastSplit, split)
		if in.SceneBounds.Valid() {
			for c := range corners {
				corners[c] = in.SceneBounds.Clamp(corners[c])
			}
		}

		var center mgl32.Vec3
		for _, c := range corners {
			center = center.Add(c)
		}
		center = center.Mul(1.0 / 8)

		var radius float32
		for _, c := range corners {
			radius = max(radius, c.Sub(center).Len())
		}
		radius = max(math32.Ceil(radius*radiusSnap)/radiusSnap, 1/radiusSnap)

		view := mgl32.LookAtV(center.Sub(dir.Mul(radius)), center, up)
		proj := mgl32.Ortho(-radius, radius, -radius, radius, 0, 2*radius)

		cascades[i] = Cascade{
			SplitDepth:     -(in.Near + split*depthRange),
			ViewProjection: proj.Mul4(view),
		}
		lastSplit = split
	}
	return cascades
}

// sliceCorners cuts the world-space frustum down to the depth slice [from, to], expressed as
// fractions of the distance from each near corner to its far counterpart.
func sliceCorners(world [8]mgl32.Vec3, from, to float32) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 4; i++ {
		edge := world[i+4].Sub(world[i])
		out[i] = world[i].Add(edge.Mul(from))
		out[i+4] = world[i].Add(edge.Mul(to))
	}
	return out
}

// DirectionFromRotation returns the direction a light with the given Euler rotation shines in:
// the forward vector (0, 0, -1) rotated by the inverse of the rotation.
//
// Parameters:
//   - eulerDegrees: the owning entity's XYZ rotation in degrees
//
// Returns:
//   - mgl32.Vec3: the unit light direction
func DirectionFromRotation(eulerDegrees mgl32.Vec3) mgl32.Vec3 {
	q := common.EulerDegreesToQuat(eulerDegrees)
	return q.Conjugate().Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
}
