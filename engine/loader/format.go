package loader

import (
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// Raw glTF componentType codes.
const (
	codeByte          = 5120
	codeUnsignedByte  = 5121
	codeShort         = 5122
	codeUnsignedShort = 5123
	codeUnsignedInt   = 5125
	codeFloat         = 5126
)

// formatsByComponent lists the scalar, vec2, vec3 and vec4 formats of each supported component type.
var formatsByComponent = map[gltf.ComponentType][4]gpu.Format{
	gltf.ComponentByte:   {gpu.FormatR8Sint, gpu.FormatR8G8Sint, gpu.FormatR8G8B8Sint, gpu.FormatR8G8B8A8Sint},
	gltf.ComponentUbyte:  {gpu.FormatR8Uint, gpu.FormatR8G8Uint, gpu.FormatR8G8B8Uint, gpu.FormatR8G8B8A8Uint},
	gltf.ComponentShort:  {gpu.FormatR16Sint, gpu.FormatR16G16Sint, gpu.FormatR16G16B16Sint, gpu.FormatR16G16B16A16Sint},
	gltf.ComponentUshort: {gpu.FormatR16Uint, gpu.FormatR16G16Uint, gpu.FormatR16G16B16Uint, gpu.FormatR16G16B16A16Uint},
	gltf.ComponentFloat:  {gpu.FormatR32Sfloat, gpu.FormatR32G32Sfloat, gpu.FormatR32G32B32Sfloat, gpu.FormatR32G32B32A32Sfloat},
}

var componentsByCode = map[int]gltf.ComponentType{
	codeByte:          gltf.ComponentByte,
	codeUnsignedByte:  gltf.ComponentUbyte,
	codeShort:         gltf.ComponentShort,
	codeUnsignedShort: gltf.ComponentUshort,
	codeUnsignedInt:   gltf.ComponentUint,
	codeFloat:         gltf.ComponentFloat,
}

var accessorTypesByName = map[string]gltf.AccessorType{
	"SCALAR": gltf.AccessorScalar,
	"VEC2":   gltf.AccessorVec2,
	"VEC3":   gltf.AccessorVec3,
	"VEC4":   gltf.AccessorVec4,
	"MAT2":   gltf.AccessorMat2,
	"MAT3":   gltf.AccessorMat3,
	"MAT4":   gltf.AccessorMat4,
}

// vectorArity returns the component count of a scalar or vector accessor type, or 0 for matrices.
func vectorArity(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

// componentSize returns the byte width of one component.
func componentSize(c gltf.ComponentType) int {
	switch c {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	}
	return 4
}

// ResolveFormat maps an accessor's component type and arity to the vertex format that describes it.
// Signed and unsigned 8 and 16 bit integers and 32 bit floats in scalar to vec4 arrangements are
// supported; 32 bit unsigned integers and matrices resolve to gpu.FormatUndefined.
//
// Parameters:
//   - componentType: the accessor component type
//   - accessorType: the accessor element type
//
// Returns:
//   - gpu.Format: the resolved format or gpu.FormatUndefined
func ResolveFormat(componentType gltf.ComponentType, accessorType gltf.AccessorType) gpu.Format {
	formats, ok := formatsByComponent[componentType]
	arity := vectorArity(accessorType)
	if !ok || arity == 0 {
		return gpu.FormatUndefined
	}
	return formats[arity-1]
}

// ResolveNumericFormat is ResolveFormat keyed by the raw JSON values: the componentType code
// (5120 to 5126) and the type string ("SCALAR", "VEC2", ...). Unknown codes and names resolve to
// gpu.FormatUndefined.
func ResolveNumericFormat(code int, typ string) gpu.Format {
	componentType, ok := componentsByCode[code]
	if !ok {
		return gpu.FormatUndefined
	}
	accessorType, ok := accessorTypesByName[typ]
	if !ok {
		return gpu.FormatUndefined
	}
	return ResolveFormat(componentType, accessorType)
}

// colorSpaceTable decides the texel format of every image from the material slots that sample it.
// Base color and emissive textures demand sRGB while normal and metallic-roughness textures demand
// linear data. When an image is demanded both ways the first demand is kept and the conflict is
// logged. Images no material samples stay gpu.FormatUndefined.
//
// Parameters:
//   - doc: the glTF document
//   - log: the logger the conflicts are reported to
//
// Returns:
//   - []gpu.Format: one format per document image
func colorSpaceTable(doc *gltf.Document, log *zap.Logger) []gpu.Format {
	formats := make([]gpu.Format, len(doc.Images))

	demand := func(material int, slot string, texture *int, want gpu.Format) {
		if texture == nil || *texture < 0 || *texture >= len(doc.Textures) || doc.Textures[*texture] == nil {
			return
		}
		source := doc.Textures[*texture].Source
		if source == nil || *source < 0 || *source >= len(formats) {
			return
		}

		switch have := formats[*source]; {
		case have == gpu.FormatUndefined:
			formats[*source] = want
		case have != want:
			log.Error("image is sampled as both sRGB and linear data",
				zap.Int("image", *source),
				zap.Int("material", material),
				zap.String("slot", slot),
				zap.Stringer("kept", have),
				zap.Stringer("rejected", want),
			)
		}
	}

	for i, m := range doc.Materials {
		if m == nil {
			continue
		}
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorTexture != nil {
				demand(i, "baseColor", &pbr.BaseColorTexture.Index, gpu.FormatR8G8B8A8Srgb)
			}
		}
		if m.NormalTexture != nil {
			demand(i, "normal", m.NormalTexture.Index, gpu.FormatR8G8B8A8Unorm)
		}
		if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.MetallicRoughnessTexture != nil {
			demand(i, "metallicRoughness", &pbr.MetallicRoughnessTexture.Index, gpu.FormatR8G8B8A8Unorm)
		}
		if m.EmissiveTexture != nil {
			demand(i, "emissive", &m.EmissiveTexture.Index, gpu.FormatR8G8B8A8Srgb)
		}
	}
	return formats
}
