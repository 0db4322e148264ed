package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUSceneDataSize is the size of the SceneData uniform block in bytes.
const GPUSceneDataSize = 544

// GPUDirectionalLight is the light block nested in GPUSceneData.
type GPUDirectionalLight struct {
	Direction    mgl32.Vec3 // offset 0: direction the light travels in (12 bytes)
	ShadowAmount float32    // offset 12: darkness of shadowed fragments (4 bytes)
	Radiance     mgl32.Vec3 // offset 16: linear RGB color (12 bytes)
	Intensity    float32    // offset 28: radiance multiplier (4 bytes)
}

// GPUSceneData is the per-frame scene uniform.
// Matches the WGSL SceneData struct layout exactly (std140, 544 bytes including tail padding).
type GPUSceneData struct {
	ViewProjection    mgl32.Mat4                    // offset   0 (64 bytes)
	View              mgl32.Mat4                    // offset  64 (64 bytes)
	Projection        mgl32.Mat4                    // offset 128 (64 bytes)
	LightMatrices     [light.MaxCascades]mgl32.Mat4 // offset 192 (256 bytes)
	CascadeSplits     mgl32.Vec4                    // offset 448: negated view depth where each cascade ends (16 bytes)
	Position          mgl32.Vec4                    // offset 464: camera world position, w = 1 (16 bytes)
	Light             GPUDirectionalLight           // offset 480 (32 bytes)
	LightSize         float32                       // offset 512 (4 bytes)
	CastShadows       bool                          // offset 516: i32 (4 bytes)
	SoftShadows       bool                          // offset 520: i32 (4 bytes)
	DebugShowCascades bool                          // offset 524: i32 (4 bytes)
	CascadeCount      int32                         // offset 528 (4 bytes), 12 bytes padding follow
}

// Size returns the size of the uniform block in bytes.
//
// Returns:
//   - int: the size of the block in bytes.
func (g *GPUSceneData) Size() int {
	return GPUSceneDataSize
}

// Marshal serializes the GPUSceneData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 544-byte buffer ready for GPU upload.
func (g *GPUSceneData) Marshal() []byte {
	buf := make([]byte, GPUSceneDataSize)
	common.PutMat4(buf[0:], g.ViewProjection)
	common.PutMat4(buf[64:], g.View)
	common.PutMat4(buf[128:], g.Projection)
	for i, m := range g.LightMatrices {
		common.PutMat4(buf[192+i*64:], m)
	}
	common.PutVec4(buf[448:], g.CascadeSplits)
	common.PutVec4(buf[464:], g.Position)
	common.PutVec4(buf[480:], g.Light.Direction.Vec4(g.Light.ShadowAmount))
	common.PutVec4(buf[496:], g.Light.Radiance.Vec4(g.Light.Intensity))
	binary.LittleEndian.PutUint32(buf[512:516], math.Float32bits(g.LightSize))
	binary.LittleEndian.PutUint32(buf[516:520], boolToUint32(g.CastShadows))
	binary.LittleEndian.PutUint32(buf[520:524], boolToUint32(g.SoftShadows))
	binary.LittleEndian.PutUint32(buf[524:528], boolToUint32(g.DebugShowCascades))
	binary.LittleEndian.PutUint32(buf[528:532], uint32(g.CascadeCount))
	return buf
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
