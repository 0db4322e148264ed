package loader

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// degenerateEpsilon is the length below which an accumulated tangent is treated as missing.
const degenerateEpsilon = 1e-6

// TangentSource is the geometry a tangent frame is generated for: a triangle list over a set of
// vertices, read through face/corner lookups so indexed and non-indexed geometry look the same.
type TangentSource interface {
	// NumVertices returns the number of distinct vertices.
	NumVertices() int

	// NumFaces returns the number of triangles.
	NumFaces() int

	// VertexIndex returns the vertex used by corner (0, 1 or 2) of face.
	VertexIndex(face, corner int) int

	PositionAt(v int) mgl32.Vec3
	NormalAt(v int) mgl32.Vec3
	UVAt(v int) mgl32.Vec2

	// SetTangent stores the generated frame of vertex v. The tangent carries the handedness in w.
	SetTangent(v int, tangent mgl32.Vec4, bitangent mgl32.Vec3)
}

// GenerateTangents computes a tangent frame for every vertex of src from its position and UV
// derivatives.
//
// Each face contributes its UV-gradient tangent and bitangent to all three of its vertices, so
// vertices shared by several faces receive the average direction. Every vertex tangent is then
// orthogonalized against the vertex normal (Gram-Schmidt), its handedness is the sign of
// dot(cross(N, T), B), and the stored bitangent is w * cross(N, T). Vertices with no usable UV
// gradient get an arbitrary tangent perpendicular to the normal. Iteration order is fixed, so the
// result is identical for identical input.
//
// Parameters:
//   - src: the geometry to generate tangents for
func GenerateTangents(src TangentSource) {
	n := src.NumVertices()
	tan := make([]mgl32.Vec3, n)
	btan := make([]mgl32.Vec3, n)

	for f := 0; f < src.NumFaces(); f++ {
		i0, i1, i2 := src.VertexIndex(f, 0), src.VertexIndex(f, 1), src.VertexIndex(f, 2)
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= n || i1 >= n || i2 >= n {
			continue
		}

		p0 := src.PositionAt(i0)
		edge1 := src.PositionAt(i1).Sub(p0)
		edge2 := src.PositionAt(i2).Sub(p0)

		uv0 := src.UVAt(i0)
		duv1 := src.UVAt(i1).Sub(uv0)
		duv2 := src.UVAt(i2).Sub(uv0)

		det := duv1[0]*duv2[1] - duv1[1]*duv2[0]
		if det == 0 {
			continue
		}
		invDet := 1 / det

		t := edge1.Mul(duv2[1]).Sub(edge2.Mul(duv1[1])).Mul(invDet)
		b := edge2.Mul(duv1[0]).Sub(edge1.Mul(duv2[0])).Mul(invDet)

		for _, v := range [3]int{i0, i1, i2} {
			tan[v] = tan[v].Add(t)
			btan[v] = btan[v].Add(b)
		}
	}

	for v := 0; v < n; v++ {
		normal := src.NormalAt(v)
		t := tan[v].Sub(normal.Mul(normal.Dot(tan[v])))
		if t.Len() < degenerateEpsilon {
			t = perpendicular(normal)
		} else {
			t = t.Normalize()
		}

		cross := normal.Cross(t)
		w := float32(1)
		if cross.Dot(btan[v]) < 0 {
			w = -1
		}
		src.SetTangent(v, t.Vec4(w), cross.Mul(w))
	}
}

// perpendicular returns a unit vector orthogonal to n, or +X when n is zero.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	if n.Len() < degenerateEpsilon {
		return mgl32.Vec3{1, 0, 0}
	}
	axis := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n.Normalize()[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return n.Cross(axis).Normalize()
}

// BitangentsFromTangents derives bitangents from source tangents as cross(N, T.xyz) * T.w.
// Vertices past the end of normals use a zero normal.
//
// Parameters:
//   - normals: the vertex normals
//   - tangents: the vertex tangents with handedness in w
//
// Returns:
//   - []mgl32.Vec3: one bitangent per tangent
func BitangentsFromTangents(normals []mgl32.Vec3, tangents []mgl32.Vec4) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(tangents))
	for i, t := range tangents {
		var n mgl32.Vec3
		if i < len(normals) {
			n = normals[i]
		}
		out[i] = n.Cross(t.Vec3()).Mul(t[3])
	}
	return out
}
