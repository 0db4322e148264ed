package material

import (
	"encoding/binary"
	"math"
)

// GPUMaterialDataSize is the size of the MaterialData uniform block in bytes.
const GPUMaterialDataSize = 64

// GPUMaterialData is the GPU-aligned material uniform.
// Matches the WGSL MaterialData struct layout exactly (std140, 64 bytes including tail padding).
type GPUMaterialData struct {
	BaseColorFactor [4]float32 // offset  0: RGBA multiplier of the albedo texture (16 bytes)
	EmissiveFactor  [3]float32 // offset 16: RGB multiplier of the emissive texture (12 bytes)
	Metallic        float32    // offset 28: metallic factor (4 bytes)
	Roughness       float32    // offset 32: roughness factor (4 bytes)
	AlphaCutoff     float32    // offset 36: mask threshold (4 bytes)
	AlphaMode       uint32     // offset 40: 0 opaque, 1 mask, 2 blend (4 bytes)
	DoubleSided     uint32     // offset 44: 1 when back faces are drawn (4 bytes)
	NormalScale     float32    // offset 48: normal map strength (4 bytes), 12 bytes padding follow
}

// Size returns the size of the uniform block in bytes.
//
// Returns:
//   - int: the size of the block in bytes.
func (g *GPUMaterialData) Size() int {
	return GPUMaterialDataSize
}

// Marshal serializes the GPUMaterialData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUMaterialData) Marshal() []byte {
	buf := make([]byte, GPUMaterialDataSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.BaseColorFactor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.BaseColorFactor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.BaseColorFactor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.BaseColorFactor[3]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.EmissiveFactor[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.EmissiveFactor[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.EmissiveFactor[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.AlphaCutoff))
	binary.LittleEndian.PutUint32(buf[40:44], g.AlphaMode)
	binary.LittleEndian.PutUint32(buf[44:48], g.DoubleSided)
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.NormalScale))
	return buf
}
