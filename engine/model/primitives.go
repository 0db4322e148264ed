package model

import (
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// NewPlane creates a unit square in the XZ plane centred on the origin, facing +Y.
// Its single submesh has no material.
//
// Parameters:
//   - device: the device creating the buffer
//
// Returns:
//   - *Mesh: the plane mesh holding one reference
//   - error: a device error
func NewPlane(device gpu.Device) (*Mesh, error) {
	up := mgl32.Vec3{0, 1, 0}
	tangent := mgl32.Vec3{1, 0, 0}
	bitangent := up.Cross(tangent)

	geo := Geometry{
		Positions: []mgl32.Vec3{
			{-0.5, 0, -0.5},
			{0.5, 0, -0.5},
			{0.5, 0, 0.5},
			{-0.5, 0, 0.5},
		},
		Normals:    []mgl32.Vec3{up, up, up, up},
		Tangents:   []mgl32.Vec3{tangent, tangent, tangent, tangent},
		Bitangents: []mgl32.Vec3{bitangent, bitangent, bitangent, bitangent},
		Texcoords0: []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		// Counter-clockwise seen from above.
		Indices: []uint32{0, 2, 1, 0, 3, 2},
		Submeshes: []Submesh{{
			VertexCount:   4,
			IndexCount:    6,
			MaterialIndex: -1,
			Bounds:        common.NewAABBFromMinMax(mgl32.Vec3{-0.5, 0, -0.5}, mgl32.Vec3{0.5, 0, 0.5}),
		}},
	}
	return Pack(device, "Plane", geo)
}
