package material

import (
	"testing"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	m := New()
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, m.BaseColorFactor)
	assert.Equal(t, mgl32.Vec3{}, m.EmissiveFactor)
	assert.Equal(t, float32(1), m.MetallicFactor)
	assert.Equal(t, float32(1), m.RoughnessFactor)
	assert.Equal(t, float32(0.5), m.AlphaCutoff)
	assert.Equal(t, AlphaModeOpaque, m.Alpha)
	assert.Equal(t, gpu.CullModeBack, m.CullMode())
	assert.True(t, m.Albedo.Empty())
}

func TestMarshalLayout(t *testing.T) {
	m := New(
		WithBaseColor(mgl32.Vec4{0.1, 0.2, 0.3, 0.4}),
		WithEmissive(mgl32.Vec3{5, 6, 7}),
		WithMetallicRoughness(0.25, 0.75),
		WithAlpha(AlphaModeMask, 0.3),
		WithDoubleSided(true),
	)
	data := m.GPUData()
	buf := data.Marshal()
	require.Len(t, buf, GPUMaterialDataSize)

	assert.Equal(t, float32(0.4), common.Float32At(buf, 12))
	assert.Equal(t, float32(7), common.Float32At(buf, 24))
	assert.Equal(t, float32(0.25), common.Float32At(buf, 28))
	assert.Equal(t, float32(0.75), common.Float32At(buf, 32))
	assert.Equal(t, float32(0.3), common.Float32At(buf, 36))
	assert.Equal(t, byte(AlphaModeMask), buf[40])
	assert.Equal(t, byte(1), buf[44])
	assert.Equal(t, float32(1), common.Float32At(buf, 48))
	assert.Equal(t, gpu.CullModeNone, m.CullMode())
}

func TestUpdateUploadsOnlyChanges(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	m := New(WithName("red"), WithBaseColor(mgl32.Vec4{1, 0, 0, 1}))

	require.NoError(t, m.Update(d))
	require.Len(t, d.Buffers, 1)
	buf := d.Buffers[0]
	assert.Equal(t, "red Material", buf.Desc().Label)
	assert.Equal(t, float32(0), common.Float32At(buf.Data, 4))

	require.NoError(t, m.Update(d))
	assert.Len(t, d.Buffers, 1)

	m.BaseColorFactor = mgl32.Vec4{0, 1, 0, 1}
	require.NoError(t, m.Update(d))
	assert.Len(t, d.Buffers, 1)
	assert.Equal(t, float32(1), common.Float32At(buf.Data, 4))

	m.Release()
	assert.True(t, buf.Released)
	assert.Nil(t, m.Uniform())
}

func TestReleaseWithLastReference(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	m := New(WithName("shared"))
	require.NoError(t, m.Update(d))
	buf := d.Buffers[0]

	assert.Same(t, m, m.Retain())
	assert.Equal(t, 2, m.References())
	m.Release()
	assert.False(t, buf.Released)
	assert.NotNil(t, m.Uniform())

	m.Release()
	assert.True(t, buf.Released)
	assert.Zero(t, m.References())
}

func TestTextureSetOutlivesFirstMaterial(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	img, err := d.CreateImage(gpu.ImageDesc{Label: "albedo", Width: 1, Height: 1, Layers: 1, MipLevels: 1, Format: gpu.FormatR8G8B8A8Srgb})
	require.NoError(t, err)
	smp, err := d.CreateSampler(gpu.SamplerDesc{Label: "clamp"})
	require.NoError(t, err)

	set := NewTextureSet([]gpu.Image{img, nil}, []gpu.Sampler{smp})
	a := New(WithTextureSet(set), WithTextures(&Texture{Image: img, Sampler: smp}, nil, nil, nil))
	b := New(WithTextureSet(set))
	assert.Equal(t, 3, set.References())

	set.Release()
	a.Release()
	assert.False(t, d.Images[0].Released)
	assert.False(t, d.Samplers[0].Released)

	b.Release()
	assert.True(t, d.Images[0].Released)
	assert.True(t, d.Samplers[0].Released)
	assert.Zero(t, set.References())
	assert.Nil(t, set.Images)
}

func TestWithTextureSetNil(t *testing.T) {
	m := New(WithTextureSet(nil))
	assert.NotPanics(t, m.Release)
}
