package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NDCCorners lists the eight corners of the clip-space cube.
// The first four lie on the near plane (z = -1) and the last four on the far plane (z = 1),
// in matching order, so NDCCorners[i+4] is the far counterpart of NDCCorners[i].
var NDCCorners = [8]mgl32.Vec3{
	{-1, 1, -1},
	{1, 1, -1},
	{1, -1, -1},
	{-1, -1, -1},
	{-1, 1, 1},
	{1, 1, 1},
	{1, -1, 1},
	{-1, -1, 1},
}

// FrustumCorners unprojects the clip-space cube into world space.
// Each transformed corner is divided by its homogeneous w.
//
// Parameters:
//   - inverseViewProjection: the inverse of projection * view
//
// Returns:
//   - [8]mgl32.Vec3: world-space corners in NDCCorners order
func FrustumCorners(inverseViewProjection mgl32.Mat4) [8]mgl32.Vec3 {
	var corners [8]mgl32.Vec3
	for i, c := range NDCCorners {
		v := inverseViewProjection.Mul4x1(c.Vec4(1))
		corners[i] = v.Vec3().Mul(1 / v[3])
	}
	return corners
}

// FrustumBounds returns the world-space box enclosing the camera frustum described by viewProjection.
// It is a coarse culling volume: anything outside it is certainly invisible.
//
// Parameters:
//   - viewProjection: the camera projection * view matrix
//
// Returns:
//   - AABB: the enclosing box
func FrustumBounds(viewProjection mgl32.Mat4) AABB {
	box := NewAABB()
	for _, c := range FrustumCorners(viewProjection.Inv()) {
		box.ContainPoint(c)
	}
	return box
}
