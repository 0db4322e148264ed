package gpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramSourceIncludesPrelude(t *testing.T) {
	for _, p := range []Program{ProgramDepthPrePass, ProgramShadow, ProgramLighting} {
		src, err := ProgramSource(p)
		require.NoError(t, err, p.String())
		assert.Contains(t, src, "struct SceneData", p.String())
		assert.Contains(t, src, "fn vs_main", p.String())
	}

	_, err := ProgramSource(Program(99))
	assert.Error(t, err)
}

func TestReflectLightingProgram(t *testing.T) {
	src, err := ProgramSource(ProgramLighting)
	require.NoError(t, err)

	r := reflectProgram("Lighting", src)
	assert.Equal(t, "vs_main", r.vertexEntry)
	assert.Equal(t, "fs_main", r.fragmentEntry)
	require.Len(t, r.groups, 3)

	scene := r.groups[SetScene].Entries
	require.Len(t, scene, 3)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, scene[0].Buffer.Type)
	assert.False(t, scene[0].Buffer.HasDynamicOffset)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, scene[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, scene[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, scene[2].Sampler.Type)

	material := r.groups[SetMaterial].Entries
	require.Len(t, material, 9)
	for i, e := range material {
		assert.Equal(t, uint32(i), e.Binding)
	}
	assert.Equal(t, wgpu.TextureSampleTypeFloat, material[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, material[2].Sampler.Type)

	push := r.groups[dynamicGroup].Entries
	require.Len(t, push, 1)
	assert.True(t, push[0].Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(PushConstantSize), push[0].Buffer.MinBindingSize)
}

func TestReflectDepthOnlyPrograms(t *testing.T) {
	for _, p := range []Program{ProgramDepthPrePass, ProgramShadow} {
		src, err := ProgramSource(p)
		require.NoError(t, err)

		r := reflectProgram(p.String(), src)
		require.Len(t, r.groups, 3, p.String())
		assert.Len(t, r.groups[SetScene].Entries, 1, p.String())
		assert.Len(t, r.groups[SetMaterial].Entries, 3, p.String())
	}
}

func TestReflectIgnoresComments(t *testing.T) {
	src := `
// @group(0) @binding(0) var<uniform> hidden: Foo;
/* @group(3) @binding(0) var<uniform> nested: Foo; /* inner */ */
@group(0) @binding(0) var<uniform> visible: Foo;
@vertex fn vmain() {}
@fragment fn fmain() {}
`
	r := reflectProgram("test", src)
	require.Len(t, r.groups, 1)
	assert.Len(t, r.groups[0].Entries, 1)
	assert.Equal(t, "vmain", r.vertexEntry)
	assert.Equal(t, "fmain", r.fragmentEntry)
}

func TestFormatConversion(t *testing.T) {
	for _, f := range []Format{FormatR8G8B8A8Unorm, FormatR8G8B8A8Srgb, FormatB8G8R8A8Unorm, FormatD32Sfloat} {
		tf, ok := toTextureFormat(f)
		require.True(t, ok, f.String())
		assert.Equal(t, f, fromTextureFormat(tf), f.String())
	}

	_, ok := toTextureFormat(FormatR16Sint)
	assert.False(t, ok)
}
