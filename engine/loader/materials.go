package loader

import (
	"strconv"

	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// maxSamplerLod covers the mip chain of a 2048x2048 image.
const maxSamplerLod = 11

// samplerDesc translates a glTF sampler. Filters and wrap modes the sampler leaves unset keep the
// linear, repeating defaults.
//
// Parameters:
//   - s: the glTF sampler
//   - label: the sampler label
//   - anisotropy: the device's maximum anisotropy
//
// Returns:
//   - gpu.SamplerDesc: the sampler descriptor
func samplerDesc(s *gltf.Sampler, label string, anisotropy float32) gpu.SamplerDesc {
	desc := gpu.SamplerDesc{
		Label:         label,
		MagFilter:     gpu.FilterLinear,
		MinFilter:     gpu.FilterLinear,
		MipmapMode:    gpu.MipmapModeLinear,
		AddressU:      gpu.AddressModeRepeat,
		AddressV:      gpu.AddressModeRepeat,
		AddressW:      gpu.AddressModeRepeat,
		MaxLod:        maxSamplerLod,
		MaxAnisotropy: anisotropy,
	}

	switch s.MagFilter {
	case gltf.MagNearest:
		desc.MagFilter = gpu.FilterNearest
	case gltf.MagLinear:
		desc.MagFilter = gpu.FilterLinear
	}

	switch s.MinFilter {
	case gltf.MinNearest:
		desc.MinFilter = gpu.FilterNearest
	case gltf.MinLinear:
		desc.MinFilter = gpu.FilterLinear
	case gltf.MinNearestMipMapNearest:
		desc.MinFilter, desc.MipmapMode = gpu.FilterNearest, gpu.MipmapModeNearest
	case gltf.MinLinearMipMapNearest:
		desc.MinFilter, desc.MipmapMode = gpu.FilterLinear, gpu.MipmapModeNearest
	case gltf.MinNearestMipMapLinear:
		desc.MinFilter, desc.MipmapMode = gpu.FilterNearest, gpu.MipmapModeLinear
	case gltf.MinLinearMipMapLinear:
		desc.MinFilter, desc.MipmapMode = gpu.FilterLinear, gpu.MipmapModeLinear
	}

	desc.AddressU = addressMode(s.WrapS, desc.AddressU)
	desc.AddressV = addressMode(s.WrapT, desc.AddressV)
	return desc
}

func addressMode(w gltf.WrappingMode, fallback gpu.AddressMode) gpu.AddressMode {
	switch w {
	case gltf.WrapClampToEdge:
		return gpu.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return gpu.AddressModeMirroredRepeat
	case gltf.WrapRepeat:
		return gpu.AddressModeRepeat
	}
	return fallback
}

// loadSamplers creates one device sampler per glTF sampler. Failures leave a nil entry, which
// textures treat as the renderer's stock sampler.
func loadSamplers(device gpu.Device, doc *gltf.Document, log *zap.Logger) []gpu.Sampler {
	anisotropy := device.MaxSamplerAnisotropy()
	samplers := make([]gpu.Sampler, len(doc.Samplers))
	for i, s := range doc.Samplers {
		if s == nil {
			continue
		}
		label := s.Name
		if label == "" {
			label = "Sampler " + strconv.Itoa(i)
		}
		smp, err := device.CreateSampler(samplerDesc(s, label, anisotropy))
		if err != nil {
			log.Error("failed to create sampler", zap.Int("sampler", i), zap.Error(err))
			continue
		}
		samplers[i] = smp
	}
	return samplers
}

// buildTextures pairs every glTF texture with its image and sampler. A texture whose image failed
// to load keeps a nil Image and renders with the default image of its slot.
func buildTextures(doc *gltf.Document, images []gpu.Image, samplers []gpu.Sampler) []*material.Texture {
	textures := make([]*material.Texture, len(doc.Textures))
	for i, t := range doc.Textures {
		tex := &material.Texture{}
		if t != nil && t.Source != nil && *t.Source >= 0 && *t.Source < len(images) {
			tex.Image = images[*t.Source]
		}
		if t != nil && t.Sampler != nil && *t.Sampler >= 0 && *t.Sampler < len(samplers) {
			tex.Sampler = samplers[*t.Sampler]
		}
		textures[i] = tex
	}
	return textures
}

// buildMaterials translates every glTF material. Each material holds a reference to set.
//
// Parameters:
//   - doc: the glTF document
//   - textures: the textures from buildTextures
//   - set: the texture set owning the images and samplers behind textures
//
// Returns:
//   - []*material.Material: one material per document material
func buildMaterials(doc *gltf.Document, textures []*material.Texture, set *material.TextureSet) []*material.Material {
	texture := func(index int) *material.Texture {
		if index < 0 || index >= len(textures) {
			return nil
		}
		return textures[index]
	}

	materials := make([]*material.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		if m == nil {
			materials[i] = material.New(material.WithName("Material " + strconv.Itoa(i)), material.WithTextureSet(set))
			continue
		}

		name := m.Name
		if name == "" {
			name = "Material " + strconv.Itoa(i)
		}
		opts := []material.MaterialBuilderOption{
			material.WithName(name),
			material.WithEmissive(mgl32.Vec3{float32(m.EmissiveFactor[0]), float32(m.EmissiveFactor[1]), float32(m.EmissiveFactor[2])}),
			material.WithAlpha(alphaMode(m.AlphaMode), float32(orDefault(m.AlphaCutoff, 0.5))),
			material.WithDoubleSided(m.DoubleSided),
			material.WithTextureSet(set),
		}

		var albedo, normal, pbr, emissive *material.Texture
		if p := m.PBRMetallicRoughness; p != nil {
			if c := p.BaseColorFactor; c != nil {
				opts = append(opts, material.WithBaseColor(mgl32.Vec4{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}))
			}
			opts = append(opts, material.WithMetallicRoughness(float32(orDefault(p.MetallicFactor, 1)), float32(orDefault(p.RoughnessFactor, 1))))
			if p.BaseColorTexture != nil {
				albedo = texture(p.BaseColorTexture.Index)
			}
			if p.MetallicRoughnessTexture != nil {
				pbr = texture(p.MetallicRoughnessTexture.Index)
			}
		}
		if m.NormalTexture != nil && m.NormalTexture.Index != nil {
			normal = texture(*m.NormalTexture.Index)
			opts = append(opts, material.WithNormalScale(float32(orDefault(m.NormalTexture.Scale, 1))))
		}
		if m.EmissiveTexture != nil {
			emissive = texture(m.EmissiveTexture.Index)
		}
		opts = append(opts, material.WithTextures(albedo, normal, pbr, emissive))

		materials[i] = material.New(opts...)
	}
	return materials
}

func alphaMode(m gltf.AlphaMode) material.AlphaMode {
	switch m {
	case gltf.AlphaMask:
		return material.AlphaModeMask
	case gltf.AlphaBlend:
		return material.AlphaModeBlend
	}
	return material.AlphaModeOpaque
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
