package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// errSkipPrimitive marks a primitive that is left out of its mesh.
var errSkipPrimitive = errors.New("primitive skipped")

// primitiveModes maps the library's primitive modes back to the numbers glTF files use.
var primitiveModes = map[gltf.PrimitiveMode]int{
	gltf.PrimitivePoints:        0,
	gltf.PrimitiveLines:         1,
	gltf.PrimitiveLineLoop:      2,
	gltf.PrimitiveLineStrip:     3,
	gltf.PrimitiveTriangles:     4,
	gltf.PrimitiveTriangleStrip: 5,
	gltf.PrimitiveTriangleFan:   6,
}

// attributeInfo records how one vertex attribute was stored in the source asset.
type attributeInfo struct {
	Format     gpu.Format
	Normalized bool
}

// primitiveContext is one triangle-list primitive decoded to float32 streams, ready for tangent
// generation and packing.
type primitiveContext struct {
	bounds        common.AABB
	materialIndex int

	positions  []mgl32.Vec3
	normals    []mgl32.Vec3
	tangents   []mgl32.Vec4
	bitangents []mgl32.Vec3
	texcoords  []mgl32.Vec2
	indices    []uint32
	indexed    bool

	position, normal, tangent, texcoord0 attributeInfo
}

var _ TangentSource = &primitiveContext{}

func (p *primitiveContext) NumVertices() int {
	return len(p.positions)
}

func (p *primitiveContext) NumFaces() int {
	if p.indexed {
		return len(p.indices) / 3
	}
	return len(p.positions) / 3
}

func (p *primitiveContext) VertexIndex(face, corner int) int {
	if p.indexed {
		return int(p.indices[face*3+corner])
	}
	return face*3 + corner
}

func (p *primitiveContext) PositionAt(v int) mgl32.Vec3 {
	return p.positions[v]
}

func (p *primitiveContext) NormalAt(v int) mgl32.Vec3 {
	return p.normals[v]
}

func (p *primitiveContext) UVAt(v int) mgl32.Vec2 {
	return p.texcoords[v]
}

func (p *primitiveContext) SetTangent(v int, tangent mgl32.Vec4, bitangent mgl32.Vec3) {
	p.tangents[v] = tangent
	p.bitangents[v] = bitangent
}

// vertexCount returns the number of vertices the primitive contributes.
func (p *primitiveContext) vertexCount() uint32 {
	return uint32(len(p.positions))
}

// indexCount returns the number of indices the primitive contributes.
func (p *primitiveContext) indexCount() uint32 {
	return uint32(len(p.indices))
}

// decodePrimitive reads one glTF primitive into a primitiveContext.
//
// Non-triangle primitives and primitives whose POSITION cannot be read return errSkipPrimitive.
// Other attributes with an undefined format or unreadable data are logged and zero-filled. When
// the source has no TANGENT, tangents are generated; otherwise bitangents are derived from it.
//
// Parameters:
//   - doc: the glTF document with loaded buffers
//   - prim: the primitive to decode
//   - log: the logger carrying the asset, mesh and primitive fields
//
// Returns:
//   - *primitiveContext: the decoded primitive
//   - error: errSkipPrimitive wrapped with the reason
func decodePrimitive(doc *gltf.Document, prim *gltf.Primitive, log *zap.Logger) (*primitiveContext, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		log.Warn("only triangle list primitives are supported", zap.Int("mode", primitiveModes[prim.Mode]))
		return nil, fmt.Errorf("mode %d: %w", primitiveModes[prim.Mode], errSkipPrimitive)
	}

	p := &primitiveContext{
		bounds:        common.NewAABB(),
		materialIndex: -1,
	}
	if prim.Material != nil {
		p.materialIndex = *prim.Material
	}

	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		log.Warn("primitive has no POSITION attribute")
		return nil, fmt.Errorf("no POSITION: %w", errSkipPrimitive)
	}
	values, info, err := readAttribute(doc, posIndex, 3)
	if err != nil {
		log.Warn("failed to read POSITION", zap.Error(err))
		return nil, fmt.Errorf("POSITION: %w", errSkipPrimitive)
	}
	p.position = info
	p.positions = toVec3s(values)
	p.bounds = accessorBounds(doc.Accessors[posIndex], p.positions)

	count := len(p.positions)
	p.normals = make([]mgl32.Vec3, count)
	p.texcoords = make([]mgl32.Vec2, count)
	p.tangents = make([]mgl32.Vec4, count)
	p.bitangents = make([]mgl32.Vec3, count)

	if index, ok := prim.Attributes["NORMAL"]; ok {
		if values, info, err := readVertexAttribute(doc, index, 3, count, "NORMAL", log); err == nil {
			p.normal = info
			p.normals = toVec3s(values)
		}
	}
	if index, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if values, info, err := readVertexAttribute(doc, index, 2, count, "TEXCOORD_0", log); err == nil {
			p.texcoord0 = info
			p.texcoords = toVec2s(values)
		}
	}

	if prim.Indices != nil {
		indices, err := readIndices(doc, *prim.Indices)
		if err != nil {
			log.Warn("failed to read indices", zap.Error(err))
			return nil, fmt.Errorf("indices: %w", errSkipPrimitive)
		}
		for _, idx := range indices {
			if int(idx) >= count {
				log.Warn("index exceeds vertex count", zap.Uint32("index", idx), zap.Int("vertices", count))
				return nil, fmt.Errorf("index %d of %d vertices: %w", idx, count, errSkipPrimitive)
			}
		}
		p.indices = indices
		p.indexed = true
	}

	hasTangents := false
	if index, ok := prim.Attributes["TANGENT"]; ok {
		if values, info, err := readVertexAttribute(doc, index, 4, count, "TANGENT", log); err == nil {
			p.tangent = info
			p.tangents = toVec4s(values)
			hasTangents = true
		}
	}
	if hasTangents {
		p.bitangents = BitangentsFromTangents(p.normals, p.tangents)
	} else {
		GenerateTangents(p)
	}
	return p, nil
}

// readAttribute reads a vertex attribute accessor, rejecting layouts without a vertex format.
func readAttribute(doc *gltf.Document, index, want int) ([]float32, attributeInfo, error) {
	if index < 0 || index >= len(doc.Accessors) || doc.Accessors[index] == nil {
		return nil, attributeInfo{}, fmt.Errorf("accessor %d: %w", index, ErrAccessorOutOfRange)
	}
	acc := doc.Accessors[index]
	info := attributeInfo{
		Format:     ResolveFormat(acc.ComponentType, acc.Type),
		Normalized: acc.Normalized,
	}
	if info.Format == gpu.FormatUndefined {
		return nil, info, fmt.Errorf("accessor %d has no vertex format: %w", index, ErrUnsupportedAccessor)
	}
	values, _, err := readFloats(doc, index, want)
	return values, info, err
}

// readVertexAttribute is readAttribute for optional attributes: failures and count mismatches are
// logged, and the caller keeps its zero-filled stream.
func readVertexAttribute(doc *gltf.Document, index, want, count int, name string, log *zap.Logger) ([]float32, attributeInfo, error) {
	values, info, err := readAttribute(doc, index, want)
	if err == nil && len(values) != count*want {
		err = fmt.Errorf("%d elements for %d vertices: %w", len(values)/want, count, ErrUnsupportedAccessor)
	}
	if err != nil {
		log.Warn("vertex attribute is zero-filled", zap.String("attribute", name), zap.Error(err))
		return nil, info, err
	}
	return values, info, nil
}

// accessorBounds returns the declared min/max of a POSITION accessor, or the bounds of the decoded
// positions when the declaration is missing.
func accessorBounds(acc *gltf.Accessor, positions []mgl32.Vec3) common.AABB {
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		lo := mgl32.Vec3{float32(acc.Min[0]), float32(acc.Min[1]), float32(acc.Min[2])}
		hi := mgl32.Vec3{float32(acc.Max[0]), float32(acc.Max[1]), float32(acc.Max[2])}
		if acc.Normalized {
			lo = mgl32.Vec3{dequantizeBound(acc, acc.Min[0]), dequantizeBound(acc, acc.Min[1]), dequantizeBound(acc, acc.Min[2])}
			hi = mgl32.Vec3{dequantizeBound(acc, acc.Max[0]), dequantizeBound(acc, acc.Max[1]), dequantizeBound(acc, acc.Max[2])}
		}
		return common.NewAABBFromMinMax(lo, hi)
	}

	box := common.NewAABB()
	for _, p := range positions {
		box.ContainPoint(p)
	}
	return box
}

// dequantizeBound maps a declared min/max value of a normalized accessor into float space.
func dequantizeBound(acc *gltf.Accessor, v float64) float32 {
	switch acc.ComponentType {
	case gltf.ComponentByte:
		return max(float32(v)/127, -1)
	case gltf.ComponentUbyte:
		return float32(v) / 255
	case gltf.ComponentShort:
		return max(float32(v)/32767, -1)
	case gltf.ComponentUshort:
		return float32(v) / 65535
	}
	return float32(v)
}

func toVec2s(values []float32) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(values)/2)
	for i := range out {
		out[i] = mgl32.Vec2{values[i*2], values[i*2+1]}
	}
	return out
}

func toVec3s(values []float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(values)/3)
	for i := range out {
		out[i] = mgl32.Vec3{values[i*3], values[i*3+1], values[i*3+2]}
	}
	return out
}

func toVec4s(values []float32) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(values)/4)
	for i := range out {
		out[i] = mgl32.Vec4{values[i*4], values[i*4+1], values[i*4+2], values[i*4+3]}
	}
	return out
}
