package gpu

import "github.com/cogentcore/webgpu/wgpu"

var textureFormats = map[Format]wgpu.TextureFormat{
	FormatR8G8B8A8Unorm: wgpu.TextureFormatRGBA8Unorm,
	FormatR8G8B8A8Srgb:  wgpu.TextureFormatRGBA8UnormSrgb,
	FormatB8G8R8A8Unorm: wgpu.TextureFormatBGRA8Unorm,
	FormatB8G8R8A8Srgb:  wgpu.TextureFormatBGRA8UnormSrgb,
	FormatD32Sfloat:     wgpu.TextureFormatDepth32Float,
}

var vertexFormats = map[Format]wgpu.VertexFormat{
	FormatR32Sfloat:          wgpu.VertexFormatFloat32,
	FormatR32G32Sfloat:       wgpu.VertexFormatFloat32x2,
	FormatR32G32B32Sfloat:    wgpu.VertexFormatFloat32x3,
	FormatR32G32B32A32Sfloat: wgpu.VertexFormatFloat32x4,
}

func toTextureFormat(f Format) (wgpu.TextureFormat, bool) {
	tf, ok := textureFormats[f]
	return tf, ok
}

func fromTextureFormat(tf wgpu.TextureFormat) Format {
	for f, candidate := range textureFormats {
		if candidate == tf {
			return f
		}
	}
	return FormatUndefined
}

func toTextureUsage(u ImageUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&ImageUsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&(ImageUsageColorAttachment|ImageUsageDepthAttachment) != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&ImageUsageTransferDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func toBufferUsage(u BufferUsage) wgpu.BufferUsage {
	out := wgpu.BufferUsageCopyDst
	if u&BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	return out
}

func toViewDimension(k ImageKind) wgpu.TextureViewDimension {
	switch k {
	case ImageKind2DArray:
		return wgpu.TextureViewDimension2DArray
	case ImageKindCube:
		return wgpu.TextureViewDimensionCube
	default:
		return wgpu.TextureViewDimension2D
	}
}

func toFilterMode(f Filter) wgpu.FilterMode {
	if f == FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func toMipmapFilterMode(m MipmapMode) wgpu.MipmapFilterMode {
	if m == MipmapModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

// toAddressMode maps address modes. WebGPU has no border color, so clamp-to-border clamps to the edge.
func toAddressMode(a AddressMode) wgpu.AddressMode {
	switch a {
	case AddressModeMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	case AddressModeClampToEdge, AddressModeClampToBorder:
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

func toCompareFunction(c CompareOp) wgpu.CompareFunction {
	switch c {
	case CompareLessOrEqual:
		return wgpu.CompareFunctionLessEqual
	case CompareEqual:
		return wgpu.CompareFunctionEqual
	case CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

func toCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullModeBack:
		return wgpu.CullModeBack
	case CullModeFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}
