package common

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// eulerEpsilon guards the gimbal-lock branch of QuatToEuler.
const eulerEpsilon = 1e-6

// AlignUp rounds size up to the next multiple of alignment.
// The alignment must be a power of two; sizes that are already aligned are returned unchanged.
//
// Parameters:
//   - size: the byte size to align
//   - alignment: the power-of-two boundary
//
// Returns:
//   - uint64: the aligned size
func AlignUp(size, alignment uint64) uint64 {
	return (size + alignment - 1) &^ (alignment - 1)
}

// EulerToQuat builds a rotation quaternion from XYZ Euler angles in radians.
// The composition matches R = Rz * Ry * Rx, so the X rotation is applied first.
//
// Parameters:
//   - euler: pitch (x), yaw (y) and roll (z) in radians
//
// Returns:
//   - mgl32.Quat: the unit rotation quaternion
func EulerToQuat(euler mgl32.Vec3) mgl32.Quat {
	sx, cx := math32.Sincos(euler[0] * 0.5)
	sy, cy := math32.Sincos(euler[1] * 0.5)
	sz, cz := math32.Sincos(euler[2] * 0.5)

	return mgl32.Quat{
		W: cx*cy*cz + sx*sy*sz,
		V: mgl32.Vec3{
			sx*cy*cz - cx*sy*sz,
			cx*sy*cz + sx*cy*sz,
			cx*cy*sz - sx*sy*cz,
		},
	}
}

// QuatToEuler extracts XYZ Euler angles in radians from a unit quaternion.
// It is the inverse of EulerToQuat for yaw angles inside (-90°, 90°).
//
// Parameters:
//   - q: the unit rotation quaternion
//
// Returns:
//   - mgl32.Vec3: pitch (x), yaw (y) and roll (z) in radians
func QuatToEuler(q mgl32.Quat) mgl32.Vec3 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	py := 2 * (y*z + w*x)
	px := w*w - x*x - y*y + z*z
	var pitch float32
	if math32.Abs(px) < eulerEpsilon && math32.Abs(py) < eulerEpsilon {
		pitch = 2 * math32.Atan2(x, w)
	} else {
		pitch = math32.Atan2(py, px)
	}

	yaw := math32.Asin(mgl32.Clamp(-2*(x*z-w*y), -1, 1))
	roll := math32.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)

	return mgl32.Vec3{pitch, yaw, roll}
}

// EulerDegreesToQuat is EulerToQuat for angles given in degrees.
func EulerDegreesToQuat(degrees mgl32.Vec3) mgl32.Quat {
	return EulerToQuat(mgl32.Vec3{
		mgl32.DegToRad(degrees[0]),
		mgl32.DegToRad(degrees[1]),
		mgl32.DegToRad(degrees[2]),
	})
}

// QuatToEulerDegrees is QuatToEuler returning degrees.
func QuatToEulerDegrees(q mgl32.Quat) mgl32.Vec3 {
	e := QuatToEuler(q)
	return mgl32.Vec3{mgl32.RadToDeg(e[0]), mgl32.RadToDeg(e[1]), mgl32.RadToDeg(e[2])}
}

// ComposeTRS builds a model matrix from a translation, Euler rotation in degrees and scale.
// The result is T * R * S.
//
// Parameters:
//   - translation: the world-space offset
//   - rotationDegrees: XYZ Euler angles in degrees
//   - scale: per-axis scale factors
//
// Returns:
//   - mgl32.Mat4: the composed column-major matrix
func ComposeTRS(translation, rotationDegrees, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(translation[0], translation[1], translation[2])
	r := EulerDegreesToQuat(rotationDegrees).Mat4()
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(r).Mul4(s)
}

// DecomposeMatrix splits an affine matrix into translation, rotation and scale.
// Shear and perspective terms are discarded. A negative determinant is folded into
// the scale so the returned rotation stays proper.
//
// Parameters:
//   - m: the column-major affine matrix
//
// Returns:
//   - translation: the translation column
//   - rotation: the unit rotation quaternion
//   - scale: the per-axis scale factors
func DecomposeMatrix(m mgl32.Mat4) (translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	translation = m.Col(3).Vec3()

	c0 := m.Col(0).Vec3()
	c1 := m.Col(1).Vec3()
	c2 := m.Col(2).Vec3()
	scale = mgl32.Vec3{c0.Len(), c1.Len(), c2.Len()}

	if c0.Dot(c1.Cross(c2)) < 0 {
		scale = scale.Mul(-1)
	}

	axes := [3]mgl32.Vec3{c0, c1, c2}
	for i := range axes {
		if scale[i] != 0 {
			axes[i] = axes[i].Mul(1 / scale[i])
		}
	}

	rot := mgl32.Mat4FromCols(axes[0].Vec4(0), axes[1].Vec4(0), axes[2].Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return translation, rotation, scale
}

// PutMat4 writes a column-major matrix into dst as 16 little-endian float32 values.
// dst must hold at least 64 bytes.
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// PutVec4 writes four little-endian float32 values into dst.
func PutVec4(dst []byte, v mgl32.Vec4) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// PutFloat32 writes a single little-endian float32 into dst.
func PutFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

// Float32At reads a little-endian float32 from src at offset.
func Float32At(src []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src[offset:]))
}
