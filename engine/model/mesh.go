// Package model holds GPU-resident mesh geometry: one buffer per mesh with one stream per vertex
// attribute plus a 32-bit index stream, and the draw ranges (submeshes) inside it.
package model

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrStreamLength is returned by Pack when a per-vertex stream does not match the vertex count.
var ErrStreamLength = errors.New("vertex stream length mismatch")

// Submesh is a contiguous draw range inside its Mesh's buffer.
type Submesh struct {
	FirstVertex uint32
	VertexCount uint32
	FirstIndex  uint32

	// IndexCount is zero for non-indexed submeshes, which are drawn with Draw.
	IndexCount uint32

	// MaterialIndex indexes the owning entity's material list; -1 means none.
	MaterialIndex int

	// Bounds in model space.
	Bounds common.AABB
}

// Indexed reports whether the submesh draws from the index stream.
func (s Submesh) Indexed() bool {
	return s.IndexCount > 0
}

// Mesh owns one GPU buffer holding every stream of all its submeshes.
// A Mesh is immutable after creation and shared between entities through Retain and Release.
type Mesh struct {
	Name   string
	Buffer gpu.Buffer

	PositionOffset  uint64
	NormalOffset    uint64
	TangentOffset   uint64
	BitangentOffset uint64
	Texcoord0Offset uint64
	IndexOffset     uint64

	TotalVertexCount uint32
	TotalIndexCount  uint32

	Submeshes []Submesh
	Bounds    common.AABB

	refs atomic.Int32
}

// Retain adds a reference and returns the mesh for chaining.
func (m *Mesh) Retain() *Mesh {
	m.refs.Add(1)
	return m
}

// Release drops a reference. The GPU buffer is released with the last one.
func (m *Mesh) Release() {
	if m.refs.Add(-1) > 0 {
		return
	}
	if m.Buffer != nil {
		m.Buffer.Release()
		m.Buffer = nil
	}
}

// References returns the current reference count.
func (m *Mesh) References() int {
	return int(m.refs.Load())
}

// Geometry is host-side mesh data ready to be packed. Per-vertex slices must either be empty
// (zero-filled on upload) or have exactly len(Positions) entries; Positions decides the vertex count.
type Geometry struct {
	Positions  []mgl32.Vec3
	Normals    []mgl32.Vec3
	Tangents   []mgl32.Vec3
	Bitangents []mgl32.Vec3
	Texcoords0 []mgl32.Vec2
	Indices    []uint32
	Submeshes  []Submesh
}

// Pack assembles the geometry into one host buffer laid out by NewStreamLayout and uploads it with a
// single buffer creation call. Geometry without vertices yields a mesh without a buffer and without
// touching the device. The returned mesh holds one reference.
//
// Parameters:
//   - device: the device creating the buffer
//   - name: the mesh name, also used as the buffer label
//   - geo: the geometry to pack
//
// Returns:
//   - *Mesh: the packed mesh
//   - error: ErrStreamLength or a device error
func Pack(device gpu.Device, name string, geo Geometry) (*Mesh, error) {
	vertexCount := len(geo.Positions)
	for stream, n := range map[string]int{
		"normal":    len(geo.Normals),
		"tangent":   len(geo.Tangents),
		"bitangent": len(geo.Bitangents),
		"texcoord0": len(geo.Texcoords0),
	} {
		if n != 0 && n != vertexCount {
			return nil, fmt.Errorf("%s: %w: %s has %d entries for %d vertices", name, ErrStreamLength, stream, n, vertexCount)
		}
	}

	mesh := &Mesh{
		Name:             name,
		TotalVertexCount: uint32(vertexCount),
		TotalIndexCount:  uint32(len(geo.Indices)),
		Submeshes:        geo.Submeshes,
		Bounds:           common.NewAABB(),
	}
	mesh.refs.Store(1)
	for _, sm := range geo.Submeshes {
		mesh.Bounds.Contain(sm.Bounds)
	}
	if vertexCount == 0 {
		return mesh, nil
	}

	layout := NewStreamLayout(mesh.TotalVertexCount, mesh.TotalIndexCount)
	mesh.PositionOffset = layout.Position
	mesh.NormalOffset = layout.Normal
	mesh.TangentOffset = layout.Tangent
	mesh.BitangentOffset = layout.Bitangent
	mesh.Texcoord0Offset = layout.Texcoord0
	mesh.IndexOffset = layout.Index

	data := make([]byte, layout.Size)
	putVec3s(data[layout.Position:], geo.Positions)
	putVec3s(data[layout.Normal:], geo.Normals)
	putVec3s(data[layout.Tangent:], geo.Tangents)
	putVec3s(data[layout.Bitangent:], geo.Bitangents)
	for i, uv := range geo.Texcoords0 {
		common.PutFloat32(data[layout.Texcoord0+uint64(i)*Texcoord0Size:], uv[0])
		common.PutFloat32(data[layout.Texcoord0+uint64(i)*Texcoord0Size+4:], uv[1])
	}
	for i, idx := range geo.Indices {
		putUint32(data[layout.Index+uint64(i)*IndexSize:], idx)
	}

	buf, err := device.CreateBuffer(gpu.BufferDesc{
		Label: name,
		Size:  layout.Size,
		Usage: gpu.BufferUsageVertex | gpu.BufferUsageIndex,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer for mesh %s: %w", name, err)
	}
	mesh.Buffer = buf
	return mesh, nil
}

func putVec3s(dst []byte, values []mgl32.Vec3) {
	for i, v := range values {
		common.PutFloat32(dst[i*12:], v[0])
		common.PutFloat32(dst[i*12+4:], v[1])
		common.PutFloat32(dst[i*12+8:], v[2])
	}
}

func putUint32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
