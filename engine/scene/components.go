package scene

import (
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/model"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Tag names an entity.
type Tag struct {
	Name string
}

// Transform places an entity relative to its parent. Rotation holds XYZ Euler angles in degrees.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Vec3
	Scale       mgl32.Vec3
}

// NewTransform returns the identity transform.
func NewTransform() *Transform {
	return &Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns the local transform T * R * S.
func (t *Transform) Matrix() mgl32.Mat4 {
	return common.ComposeTRS(t.Translation, t.Rotation, t.Scale)
}

// Translate offsets the translation.
func (t *Transform) Translate(delta mgl32.Vec3) {
	t.Translation = t.Translation.Add(delta)
}

// Rotate adds Euler degrees to the rotation.
func (t *Transform) Rotate(degrees mgl32.Vec3) {
	t.Rotation = t.Rotation.Add(degrees)
}

// ScaleBy multiplies every axis of the scale by factor.
func (t *Transform) ScaleBy(factor float32) {
	t.Scale = t.Scale.Mul(factor)
}

// Hierarchy links an entity to its parent and children.
type Hierarchy struct {
	Parent   Entity
	Children []Entity
}

// MeshComponent makes an entity drawable. Materials is the full material list of the asset the mesh
// came from; submesh material indices are resolved against it when drawing. The component owns one
// reference to Mesh and to each material, released when the entity is destroyed.
type MeshComponent struct {
	Mesh      *model.Mesh
	Bounds    common.AABB
	Materials []*material.Material
}

// MaterialFor returns the material of a submesh, or nil when its index is out of range or unset.
func (m *MeshComponent) MaterialFor(sm model.Submesh) *material.Material {
	if sm.MaterialIndex < 0 || sm.MaterialIndex >= len(m.Materials) {
		return nil
	}
	return m.Materials[sm.MaterialIndex]
}
