package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFrustumCornersOrthographic(t *testing.T) {
	proj := mgl32.Ortho(-1, 1, -2, 2, 0.5, 10)
	corners := FrustumCorners(proj.Inv())

	assertVec3Near(t, mgl32.Vec3{-1, 2, -0.5}, corners[0], 1e-4)
	assertVec3Near(t, mgl32.Vec3{-1, 2, -10}, corners[4], 1e-4)
	assertVec3Near(t, mgl32.Vec3{1, -2, -10}, corners[6], 1e-4)
}

func TestFrustumBoundsPerspective(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 10)

	b := FrustumBounds(proj.Mul4(view))
	assert.InDelta(t, 4, b.Max[2], 1e-3)
	assert.InDelta(t, -5, b.Min[2], 1e-3)
	assert.InDelta(t, 10, b.Max[0], 1e-3)
	assert.InDelta(t, -10, b.Min[1], 1e-3)
}
