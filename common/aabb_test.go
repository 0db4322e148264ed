package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAABBEmptyAndPoint(t *testing.T) {
	b := NewAABB()
	assert.False(t, b.Valid())

	b.ContainPoint(mgl32.Vec3{1, 2, 3})
	assert.True(t, b.Valid())
	assert.Equal(t, b.Min, b.Max)
	assert.Equal(t, mgl32.Vec3{}, b.Size())
}

func TestAABBContain(t *testing.T) {
	b := NewAABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	b.Contain(NewAABB())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, b.Max, "invalid boxes are ignored")

	b.Contain(NewAABBFromMinMax(mgl32.Vec3{-1, 0.5, 0}, mgl32.Vec3{0, 3, 0.5}))
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 3, 1}, b.Max)
	assert.Equal(t, mgl32.Vec3{0, 1.5, 0.5}, b.Center())
}

func TestAABBTransform(t *testing.T) {
	b := NewAABBFromMinMax(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})

	moved := b.Transform(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1)))
	assertVec3Near(t, mgl32.Vec3{8, -1, -1}, moved.Min, 1e-5)
	assertVec3Near(t, mgl32.Vec3{12, 1, 1}, moved.Max, 1e-5)

	rotated := b.Transform(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))
	assert.InDelta(t, 1.41421, rotated.Max[0], 1e-4)

	assert.False(t, NewAABB().Transform(mgl32.Ident4()).Valid())
}

func TestAABBIntersects(t *testing.T) {
	a := NewAABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})

	assert.True(t, a.Intersects(NewAABBFromMinMax(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2})), "touching")
	assert.True(t, a.Intersects(NewAABBFromMinMax(mgl32.Vec3{0.2, 0.2, 0.2}, mgl32.Vec3{0.4, 0.4, 0.4})))
	assert.False(t, a.Intersects(NewAABBFromMinMax(mgl32.Vec3{0, 1.1, 0}, mgl32.Vec3{1, 2, 1})))
}

func TestAABBClampAndCorners(t *testing.T) {
	b := NewAABBFromMinMax(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 2, 3})
	assert.Equal(t, mgl32.Vec3{1, 0, 1.5}, b.Clamp(mgl32.Vec3{5, -1, 1.5}))

	seen := map[mgl32.Vec3]bool{}
	for _, c := range b.Corners() {
		seen[c] = true
	}
	assert.Len(t, seen, 8)
}
