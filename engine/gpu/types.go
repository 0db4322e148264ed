// Package gpu defines the device and command recording surface the renderer and loader are written
// against, together with the WebGPU implementation used by the viewer.
package gpu

import "fmt"

// Format identifies a vertex attribute or texel encoding.
type Format int

const (
	FormatUndefined Format = iota

	FormatR8Sint
	FormatR8G8Sint
	FormatR8G8B8Sint
	FormatR8G8B8A8Sint

	FormatR8Uint
	FormatR8G8Uint
	FormatR8G8B8Uint
	FormatR8G8B8A8Uint

	FormatR16Sint
	FormatR16G16Sint
	FormatR16G16B16Sint
	FormatR16G16B16A16Sint

	FormatR16Uint
	FormatR16G16Uint
	FormatR16G16B16Uint
	FormatR16G16B16A16Uint

	FormatR32Sfloat
	FormatR32G32Sfloat
	FormatR32G32B32Sfloat
	FormatR32G32B32A32Sfloat

	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatD32Sfloat
)

var formatNames = map[Format]string{
	FormatUndefined:          "Undefined",
	FormatR8Sint:             "R8Sint",
	FormatR8G8Sint:           "R8G8Sint",
	FormatR8G8B8Sint:         "R8G8B8Sint",
	FormatR8G8B8A8Sint:       "R8G8B8A8Sint",
	FormatR8Uint:             "R8Uint",
	FormatR8G8Uint:           "R8G8Uint",
	FormatR8G8B8Uint:         "R8G8B8Uint",
	FormatR8G8B8A8Uint:       "R8G8B8A8Uint",
	FormatR16Sint:            "R16Sint",
	FormatR16G16Sint:         "R16G16Sint",
	FormatR16G16B16Sint:      "R16G16B16Sint",
	FormatR16G16B16A16Sint:   "R16G16B16A16Sint",
	FormatR16Uint:            "R16Uint",
	FormatR16G16Uint:         "R16G16Uint",
	FormatR16G16B16Uint:      "R16G16B16Uint",
	FormatR16G16B16A16Uint:   "R16G16B16A16Uint",
	FormatR32Sfloat:          "R32Sfloat",
	FormatR32G32Sfloat:       "R32G32Sfloat",
	FormatR32G32B32Sfloat:    "R32G32B32Sfloat",
	FormatR32G32B32A32Sfloat: "R32G32B32A32Sfloat",
	FormatR8G8B8A8Unorm:      "R8G8B8A8Unorm",
	FormatR8G8B8A8Srgb:       "R8G8B8A8Srgb",
	FormatB8G8R8A8Unorm:      "B8G8R8A8Unorm",
	FormatB8G8R8A8Srgb:       "B8G8R8A8Srgb",
	FormatD32Sfloat:          "D32Sfloat",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsDepth reports whether the format is a depth format.
func (f Format) IsDepth() bool {
	return f == FormatD32Sfloat
}

// BufferUsage is a bit set of the roles a buffer may be bound in.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
)

// ImageUsage is a bit set of the roles an image may be bound in.
type ImageUsage uint32

const (
	ImageUsageSampled ImageUsage = 1 << iota
	ImageUsageColorAttachment
	ImageUsageDepthAttachment
	ImageUsageTransferDst
)

// ImageKind selects the view dimension of an image.
type ImageKind int

const (
	ImageKind2D ImageKind = iota
	ImageKind2DArray
	ImageKindCube
)

// ImageLayout is the access state an image is transitioned between with a barrier.
type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutColorAttachment
	LayoutDepthAttachment
	LayoutShaderReadOnly
	LayoutTransferDst
)

var layoutNames = [...]string{"Undefined", "ColorAttachment", "DepthAttachment", "ShaderReadOnly", "TransferDst"}

func (l ImageLayout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("ImageLayout(%d)", int(l))
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeBack
	CullModeFront
)

// CompareOp is a depth comparison function.
type CompareOp int

const (
	CompareLess CompareOp = iota
	CompareLessOrEqual
	CompareEqual
	CompareAlways
)

// Filter is a texel filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// MipmapMode is the filter applied between mip levels.
type MipmapMode int

const (
	MipmapModeLinear MipmapMode = iota
	MipmapModeNearest
)

// AddressMode controls texture coordinate wrapping.
type AddressMode int

const (
	AddressModeRepeat AddressMode = iota
	AddressModeMirroredRepeat
	AddressModeClampToEdge
	AddressModeClampToBorder
)

// BorderColor is the color returned by AddressModeClampToBorder outside [0, 1].
type BorderColor int

const (
	BorderColorTransparentBlack BorderColor = iota
	BorderColorOpaqueBlack
	BorderColorOpaqueWhite
)

// Program names one of the shader programs the device ships with.
type Program int

const (
	// ProgramDepthPrePass writes depth only, discarding alpha-masked texels.
	ProgramDepthPrePass Program = iota

	// ProgramShadow renders one shadow cascade into a depth array layer.
	ProgramShadow

	// ProgramLighting shades the scene with PBR lighting and cascaded shadows.
	ProgramLighting
)

var programNames = [...]string{"DepthPrePass", "Shadow", "Lighting"}

func (p Program) String() string {
	if int(p) < len(programNames) {
		return programNames[p]
	}
	return fmt.Sprintf("Program(%d)", int(p))
}
