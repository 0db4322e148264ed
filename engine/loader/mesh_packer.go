package loader

import (
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// PackMesh merges decoded primitives into one mesh buffer, one submesh per primitive in order.
// Each submesh records its running first vertex and first index; its indices stay local to the
// submesh and are drawn with FirstVertex as the vertex offset. Tangents are packed as their xyz
// part. A nil or empty primitive list yields a mesh without a buffer.
//
// Parameters:
//   - device: the device creating the mesh buffer
//   - label: the mesh name
//   - prims: the primitives to pack
//
// Returns:
//   - *model.Mesh: the packed mesh holding one reference
//   - error: a model.Pack error
func PackMesh(device gpu.Device, label string, prims []*primitiveContext) (*model.Mesh, error) {
	var vertexCount, indexCount uint32
	for _, p := range prims {
		vertexCount += p.vertexCount()
		indexCount += p.indexCount()
	}

	geo := model.Geometry{
		Positions:  make([]mgl32.Vec3, 0, vertexCount),
		Normals:    make([]mgl32.Vec3, 0, vertexCount),
		Tangents:   make([]mgl32.Vec3, 0, vertexCount),
		Bitangents: make([]mgl32.Vec3, 0, vertexCount),
		Texcoords0: make([]mgl32.Vec2, 0, vertexCount),
		Indices:    make([]uint32, 0, indexCount),
		Submeshes:  make([]model.Submesh, 0, len(prims)),
	}

	for _, p := range prims {
		geo.Submeshes = append(geo.Submeshes, model.Submesh{
			FirstVertex:   uint32(len(geo.Positions)),
			VertexCount:   p.vertexCount(),
			FirstIndex:    uint32(len(geo.Indices)),
			IndexCount:    p.indexCount(),
			MaterialIndex: p.materialIndex,
			Bounds:        p.bounds,
		})

		geo.Positions = append(geo.Positions, p.positions...)
		geo.Normals = append(geo.Normals, p.normals...)
		for _, t := range p.tangents {
			geo.Tangents = append(geo.Tangents, t.Vec3())
		}
		geo.Bitangents = append(geo.Bitangents, p.bitangents...)
		geo.Texcoords0 = append(geo.Texcoords0, p.texcoords...)
		geo.Indices = append(geo.Indices, p.indices...)
	}

	return model.Pack(device, label, geo)
}
