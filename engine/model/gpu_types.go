package model

import (
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
)

// Per-element sizes of the mesh streams, in bytes.
const (
	PositionSize  = 12 // vec3<f32>
	NormalSize    = 12 // vec3<f32>
	TangentSize   = 12 // vec3<f32>, handedness folded into the bitangent
	BitangentSize = 12 // vec3<f32>
	Texcoord0Size = 8  // vec2<f32>
	IndexSize     = 4  // u32

	// StreamAlignment is the boundary every stream starts on.
	StreamAlignment = 16
)

// Vertex stream descriptions in shader location order. Depth-only passes bind the first two.
var (
	PositionStream  = gpu.VertexStream{Format: gpu.FormatR32G32B32Sfloat, Stride: PositionSize}
	Texcoord0Stream = gpu.VertexStream{Format: gpu.FormatR32G32Sfloat, Stride: Texcoord0Size}
	NormalStream    = gpu.VertexStream{Format: gpu.FormatR32G32B32Sfloat, Stride: NormalSize}
	TangentStream   = gpu.VertexStream{Format: gpu.FormatR32G32B32Sfloat, Stride: TangentSize}
	BitangentStream = gpu.VertexStream{Format: gpu.FormatR32G32B32Sfloat, Stride: BitangentSize}
)

// StreamLayout holds the byte offset of every stream inside a mesh buffer and the buffer size.
// Streams are stored back to back in the order position, normal, tangent, bitangent, texcoord0,
// index, each rounded up to StreamAlignment.
type StreamLayout struct {
	Position  uint64
	Normal    uint64
	Tangent   uint64
	Bitangent uint64
	Texcoord0 uint64
	Index     uint64
	Size      uint64
}

// NewStreamLayout computes the stream offsets for the given element counts.
//
// Parameters:
//   - vertexCount: the number of vertices across all submeshes
//   - indexCount: the number of 32-bit indices across all submeshes
//
// Returns:
//   - StreamLayout: the offsets and the total buffer size
func NewStreamLayout(vertexCount, indexCount uint32) StreamLayout {
	v := uint64(vertexCount)
	var l StreamLayout
	next := uint64(0)
	place := func(size uint64) uint64 {
		offset := next
		next += common.AlignUp(size, StreamAlignment)
		return offset
	}
	l.Position = place(v * PositionSize)
	l.Normal = place(v * NormalSize)
	l.Tangent = place(v * TangentSize)
	l.Bitangent = place(v * BitangentSize)
	l.Texcoord0 = place(v * Texcoord0Size)
	l.Index = place(uint64(indexCount) * IndexSize)
	l.Size = next
	return l
}
