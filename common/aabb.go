package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
//
// An empty box (min = +Inf, max = -Inf) is distinct from a degenerate zero-volume box:
// NewAABB returns the empty box and Valid reports false for it, while a box containing a
// single point is valid with Min == Max.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB returns an empty (invalid) box ready to be grown with Contain.
func NewAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewAABBFromMinMax returns a box spanning min to max.
func NewAABBFromMinMax(min, max mgl32.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Valid reports whether the box contains at least one point.
func (b AABB) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// ContainPoint grows the box to include p.
func (b *AABB) ContainPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

// Contain grows the box to include other. Invalid boxes are ignored.
func (b *AABB) Contain(other AABB) {
	if !other.Valid() {
		return
	}
	b.ContainPoint(other.Min)
	b.ContainPoint(other.Max)
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the per-axis extent of the box.
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the box enclosing all eight corners of b after transforming them by m.
// An invalid box stays invalid.
//
// Parameters:
//   - m: the column-major affine transform
//
// Returns:
//   - AABB: the world-space enclosing box
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if !b.Valid() {
		return b
	}
	out := NewAABB()
	for _, c := range b.Corners() {
		out.ContainPoint(mgl32.TransformCoordinate(c, m))
	}
	return out
}

// Intersects reports whether the two boxes overlap, touching faces included.
func (b AABB) Intersects(other AABB) bool {
	if b.Max[0] < other.Min[0] || b.Min[0] > other.Max[0] {
		return false
	}
	if b.Max[1] < other.Min[1] || b.Min[1] > other.Max[1] {
		return false
	}
	if b.Max[2] < other.Min[2] || b.Min[2] > other.Max[2] {
		return false
	}
	return true
}

// Clamp returns p clamped per axis into the box.
func (b AABB) Clamp(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		mgl32.Clamp(p[0], b.Min[0], b.Max[0]),
		mgl32.Clamp(p[1], b.Min[1], b.Max[1]),
		mgl32.Clamp(p[2], b.Min[2], b.Max[2]),
	}
}
