// Package material describes surface appearance: scalar PBR factors, alpha handling and up to four
// textures, plus the uniform block the lighting and depth programs read them from.
package material

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// AlphaMode selects how the alpha channel of the base color is interpreted.
type AlphaMode uint32

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

func (m AlphaMode) String() string {
	switch m {
	case AlphaModeMask:
		return "Mask"
	case AlphaModeBlend:
		return "Blend"
	default:
		return "Opaque"
	}
}

// Texture pairs an image with the sampler it is read through.
// A nil Image is an empty placeholder and a nil Sampler selects the renderer's stock sampler.
type Texture struct {
	Image   gpu.Image
	Sampler gpu.Sampler
}

// Empty reports whether the texture has no image to sample.
func (t *Texture) Empty() bool {
	return t == nil || t.Image == nil
}

// Material holds the surface description of one glTF material. Materials are shared by every
// submesh and entity referencing them through Retain and Release; the renderer uploads the uniform
// block through Update.
type Material struct {
	Name string

	BaseColorFactor mgl32.Vec4
	EmissiveFactor  mgl32.Vec3
	MetallicFactor  float32
	RoughnessFactor float32
	NormalScale     float32
	AlphaCutoff     float32
	Alpha           AlphaMode
	DoubleSided     bool

	Albedo   *Texture
	Normal   *Texture
	PBR      *Texture
	Emissive *Texture

	uniform  gpu.Buffer
	uploaded []byte

	textures *TextureSet
	refs     atomic.Int32
}

// New creates a material with glTF default factors: white base color, no emission, fully metallic and
// rough, opaque with a 0.5 cutoff. Without options the result is the default ("null") material.
// The returned material holds one reference.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - *Material: the configured material
func New(options ...MaterialBuilderOption) *Material {
	m := &Material{
		BaseColorFactor: mgl32.Vec4{1, 1, 1, 1},
		MetallicFactor:  1,
		RoughnessFactor: 1,
		NormalScale:     1,
		AlphaCutoff:     0.5,
		Alpha:           AlphaModeOpaque,
	}
	for _, opt := range options {
		opt(m)
	}
	m.refs.Store(1)
	return m
}

// Retain adds a reference and returns the material for chaining.
func (m *Material) Retain() *Material {
	m.refs.Add(1)
	return m
}

// References returns the current reference count.
func (m *Material) References() int {
	return int(m.refs.Load())
}

// GPUData returns the uniform block for the current factors.
func (m *Material) GPUData() GPUMaterialData {
	var doubleSided uint32
	if m.DoubleSided {
		doubleSided = 1
	}
	return GPUMaterialData{
		BaseColorFactor: m.BaseColorFactor,
		EmissiveFactor:  m.EmissiveFactor,
		Metallic:        m.MetallicFactor,
		Roughness:       m.RoughnessFactor,
		AlphaCutoff:     m.AlphaCutoff,
		AlphaMode:       uint32(m.Alpha),
		DoubleSided:     doubleSided,
		NormalScale:     m.NormalScale,
	}
}

// Update creates the uniform buffer on first use and rewrites it whenever the factors changed
// since the last upload.
//
// Parameters:
//   - device: the device owning the uniform buffer
//
// Returns:
//   - error: a device error
func (m *Material) Update(device gpu.Device) error {
	data := m.GPUData()
	bytesNow := data.Marshal()

	if m.uniform == nil {
		buf, err := device.CreateBuffer(gpu.BufferDesc{
			Label: m.Name + " Material",
			Size:  GPUMaterialDataSize,
			Usage: gpu.BufferUsageUniform,
		}, bytesNow)
		if err != nil {
			return fmt.Errorf("failed to create uniform buffer for material %q: %w", m.Name, err)
		}
		m.uniform = buf
		m.uploaded = bytesNow
		return nil
	}

	if bytes.Equal(bytesNow, m.uploaded) {
		return nil
	}
	if err := device.WriteBuffer(m.uniform, 0, bytesNow); err != nil {
		return fmt.Errorf("failed to update material %q: %w", m.Name, err)
	}
	m.uploaded = bytesNow
	return nil
}

// Uniform returns the uniform buffer, or nil before the first Update.
func (m *Material) Uniform() gpu.Buffer {
	return m.uniform
}

// CullMode returns the face culling a depth or lighting pass uses for this material.
func (m *Material) CullMode() gpu.CullMode {
	if m.DoubleSided {
		return gpu.CullModeNone
	}
	return gpu.CullModeBack
}

// Release drops a reference. The last one frees the uniform buffer and the material's reference to
// the texture set its images came from. Textures without a set are owned by whoever created them.
func (m *Material) Release() {
	if m.refs.Add(-1) > 0 {
		return
	}
	if m.uniform != nil {
		m.uniform.Release()
		m.uniform = nil
		m.uploaded = nil
	}
	if m.textures != nil {
		m.textures.Release()
		m.textures = nil
	}
}
