package light

import (
	"testing"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCameraInverse() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 2, 10}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view).Inv()
}

func projectedRadius(vp mgl32.Mat4) float32 {
	return 1 / mgl32.Vec3{vp.At(0, 0), vp.At(0, 1), vp.At(0, 2)}.Len()
}

func TestCascadeSplitsAreIncreasingAndEndAtOne(t *testing.T) {
	splits := CascadeSplits(4, 0.1, 500, DefaultCascadeSplitLambda)
	require.Len(t, splits, 4)

	prev := float32(0)
	for _, s := range splits {
		assert.Greater(t, s, prev)
		prev = s
	}
	assert.InDelta(t, 1, splits[3], 1e-4)
}

func TestCascadeSplitsUniformWhenLambdaZero(t *testing.T) {
	splits := CascadeSplits(4, 1, 101, 0)
	for i, s := range splits {
		assert.InDelta(t, float32(i+1)/4, s, 1e-5)
	}
}

func TestCascadeSplitsDegenerateRange(t *testing.T) {
	splits := CascadeSplits(2, 5, 5, 1)
	assert.Equal(t, []float32{0.5, 1}, splits)
}

func TestFitCascadesClampsCount(t *testing.T) {
	in := CascadeInput{Near: 0.1, Far: 100, Lambda: 0.95, InverseViewProjection: testCameraInverse(), LightDirection: mgl32.Vec3{0, -1, -1}, SceneBounds: common.NewAABB()}

	in.Count = 0
	assert.Len(t, FitCascades(in), 1)
	in.Count = 9
	assert.Len(t, FitCascades(in), MaxCascades)
}

func TestFitCascadesSplitDepths(t *testing.T) {
	in := CascadeInput{Count: 4, Near: 0.1, Far: 100, Lambda: 0.95, InverseViewProjection: testCameraInverse(), LightDirection: mgl32.Vec3{1, -1, 0}, SceneBounds: common.NewAABB()}
	cascades := FitCascades(in)
	splits := CascadeSplits(4, 0.1, 100, 0.95)

	for i, c := range cascades {
		assert.InDelta(t, -(0.1 + splits[i]*99.9), c.SplitDepth, 1e-3)
	}
	assert.InDelta(t, -100, cascades[3].SplitDepth, 1e-2)
}

func TestFitCascadesEnclosesClampedSlices(t *testing.T) {
	bounds := common.NewAABBFromMinMax(mgl32.Vec3{-5, -1, -5}, mgl32.Vec3{5, 3, 5})
	inv := testCameraInverse()
	in := CascadeInput{
		Count:                 4,
		Near:                  0.1,
		Far:                   100,
		Lambda:                0.95,
		InverseViewProjection: inv,
		LightDirection:        DirectionFromRotation(mgl32.Vec3{60, 20, 0}),
		SceneBounds:           bounds,
	}
	cascades := FitCascades(in)
	splits := CascadeSplits(4, 0.1, 100, 0.95)

	world := common.FrustumCorners(inv)
	last := float32(0)
	for i, c := range cascades {
		r := projectedRadius(c.ViewProjection)
		assert.InDelta(t, math32.Floor(r*16+0.5), r*16, 1e-2, "radius snaps to 1/16")

		for _, corner := range sliceCorners(world, last, splits[i]) {
			clamped := bounds.Clamp(corner)
			clip := c.ViewProjection.Mul4x1(clamped.Vec4(1))
			for axis := 0; axis < 3; axis++ {
				assert.LessOrEqual(t, math32.Abs(clip[axis]), float32(1.001))
			}
		}
		last = splits[i]
	}
}

func TestFitCascadesInvalidBoundsLeaveSlicesUnclamped(t *testing.T) {
	inv := testCameraInverse()
	in := CascadeInput{Count: 2, Near: 0.1, Far: 100, Lambda: 0.5, InverseViewProjection: inv, LightDirection: mgl32.Vec3{0, -1, -0.5}, SceneBounds: common.NewAABB()}
	cascades := FitCascades(in)
	splits := CascadeSplits(2, 0.1, 100, 0.5)

	world := common.FrustumCorners(inv)
	last := float32(0)
	for i, c := range cascades {
		assert.Greater(t, projectedRadius(c.ViewProjection), float32(1))
		for _, corner := range sliceCorners(world, last, splits[i]) {
			clip := c.ViewProjection.Mul4x1(corner.Vec4(1))
			for axis := 0; axis < 3; axis++ {
				assert.LessOrEqual(t, math32.Abs(clip[axis]), float32(1.001))
			}
		}
		last = splits[i]
	}
}

func TestFitCascadesZeroBoundsClampToOrigin(t *testing.T) {
	in := CascadeInput{Count: 2, Near: 0.1, Far: 100, Lambda: 0.5, InverseViewProjection: testCameraInverse(), LightDirection: mgl32.Vec3{0, -1, -0.5}}
	for _, c := range FitCascades(in) {
		assert.InDelta(t, 1.0/16, projectedRadius(c.ViewProjection), 1e-4)
	}
}

func TestFitCascadesSceneBoundsShrinkCascades(t *testing.T) {
	in := CascadeInput{Count: 2, Near: 0.1, Far: 100, Lambda: 0.5, InverseViewProjection: testCameraInverse(), LightDirection: mgl32.Vec3{0, -1, -0.5}, SceneBounds: common.NewAABB()}
	unclamped := FitCascades(in)

	in.SceneBounds = common.NewAABBFromMinMax(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	clamped := FitCascades(in)

	for i := range clamped {
		assert.Less(t, projectedRadius(clamped[i].ViewProjection), projectedRadius(unclamped[i].ViewProjection))
		assert.LessOrEqual(t, projectedRadius(clamped[i].ViewProjection), float32(2))
	}
}

func TestFitCascadesVerticalLight(t *testing.T) {
	in := CascadeInput{Count: 1, Near: 0.1, Far: 50, InverseViewProjection: testCameraInverse(), LightDirection: mgl32.Vec3{0, -1, 0}, SceneBounds: common.NewAABB()}
	vp := FitCascades(in)[0].ViewProjection
	for _, v := range vp {
		assert.False(t, math32.IsNaN(v))
	}
	assert.Greater(t, projectedRadius(vp), float32(1))
}

func TestDirectionFromRotation(t *testing.T) {
	for _, tc := range []struct {
		rotation mgl32.Vec3
		want     mgl32.Vec3
	}{
		{mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, 90, 0}, mgl32.Vec3{1, 0, 0}},
	} {
		got := DirectionFromRotation(tc.rotation)
		for axis := range 3 {
			assert.InDelta(t, tc.want[axis], got[axis], 1e-5, "rotation %v axis %d", tc.rotation, axis)
		}
	}
	assert.InDelta(t, 1, DirectionFromRotation(mgl32.Vec3{85, 20, 0}).Len(), 1e-5)
}

func TestNewDirectionalLightDefaults(t *testing.T) {
	l := NewDirectionalLight()
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, l.Radiance)
	assert.Equal(t, float32(1), l.Intensity)
	assert.Equal(t, float32(0.5), l.LightSize)
	assert.Equal(t, float32(1), l.ShadowAmount)
	assert.True(t, l.CastShadows)
	assert.True(t, l.SoftShadows)
	assert.Equal(t, DefaultCascadeSplitLambda, l.CascadeSplitLambda)

	l = NewDirectionalLight(WithShadowAmount(2), WithSoftShadows(false), WithCascadeSplitLambda(-1))
	assert.Equal(t, float32(1), l.ShadowAmount)
	assert.False(t, l.SoftShadows)
	assert.Equal(t, float32(0), l.CascadeSplitLambda)
}
