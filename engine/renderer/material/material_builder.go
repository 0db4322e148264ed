package material

import "github.com/go-gl/mathgl/mgl32"

// MaterialBuilderOption is a functional option for configuring a Material via New.
type MaterialBuilderOption func(*Material)

// WithName is an option builder that sets the name of the Material.
//
// Parameters:
//   - name: the material identifier
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *Material) {
		m.Name = name
	}
}

// WithBaseColor is an option builder that sets the base color factor of the Material.
//
// Parameters:
//   - color: the RGBA multiplier
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *Material) {
		m.BaseColorFactor = color
	}
}

// WithEmissive is an option builder that sets the emissive factor of the Material.
func WithEmissive(emissive mgl32.Vec3) MaterialBuilderOption {
	return func(m *Material) {
		m.EmissiveFactor = emissive
	}
}

// WithMetallicRoughness is an option builder that sets the metallic and roughness factors.
//
// Parameters:
//   - metallic: 0 for dielectrics, 1 for metals
//   - roughness: 0 for mirror-smooth, 1 for fully rough
//
// Returns:
//   - MaterialBuilderOption: a function that applies the factors to a material
func WithMetallicRoughness(metallic, roughness float32) MaterialBuilderOption {
	return func(m *Material) {
		m.MetallicFactor = metallic
		m.RoughnessFactor = roughness
	}
}

// WithNormalScale is an option builder that scales the XY of sampled normal map texels.
func WithNormalScale(scale float32) MaterialBuilderOption {
	return func(m *Material) {
		m.NormalScale = scale
	}
}

// WithAlpha is an option builder that sets the alpha mode and mask cutoff.
func WithAlpha(mode AlphaMode, cutoff float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Alpha = mode
		m.AlphaCutoff = cutoff
	}
}

// WithDoubleSided is an option builder that disables back-face culling for the Material.
func WithDoubleSided(doubleSided bool) MaterialBuilderOption {
	return func(m *Material) {
		m.DoubleSided = doubleSided
	}
}

// WithTextures is an option builder that sets the four texture slots. Nil slots stay empty.
//
// Parameters:
//   - albedo: base color texture (sRGB)
//   - normal: tangent-space normal map (linear)
//   - pbr: metallic-roughness texture (linear)
//   - emissive: emissive texture (sRGB)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the textures to a material
func WithTextures(albedo, normal, pbr, emissive *Texture) MaterialBuilderOption {
	return func(m *Material) {
		m.Albedo = albedo
		m.Normal = normal
		m.PBR = pbr
		m.Emissive = emissive
	}
}

// WithTextureSet is an option builder that makes the Material hold a reference to the set owning
// its texture images, so they outlive every other holder of the set while the Material is alive.
func WithTextureSet(set *TextureSet) MaterialBuilderOption {
	return func(m *Material) {
		if set != nil {
			m.textures = set.Retain()
		}
	}
}
