package model

import (
	"testing"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamLayoutAlignment(t *testing.T) {
	for _, tc := range []struct{ vertices, indices uint32 }{
		{0, 0}, {1, 0}, {3, 3}, {4, 6}, {17, 51}, {1000, 2997},
	} {
		l := NewStreamLayout(tc.vertices, tc.indices)
		offsets := []uint64{l.Position, l.Normal, l.Tangent, l.Bitangent, l.Texcoord0, l.Index, l.Size}
		for i := 1; i < len(offsets); i++ {
			assert.LessOrEqual(t, offsets[i-1], offsets[i])
			assert.Zero(t, offsets[i]%StreamAlignment)
		}

		v := uint64(tc.vertices)
		sum := common.AlignUp(v*PositionSize, 16) + common.AlignUp(v*NormalSize, 16) +
			common.AlignUp(v*TangentSize, 16) + common.AlignUp(v*BitangentSize, 16) +
			common.AlignUp(v*Texcoord0Size, 16) + common.AlignUp(uint64(tc.indices)*IndexSize, 16)
		assert.Equal(t, sum, l.Size)
	}
}

func TestStreamLayoutNoPaddingWhenAligned(t *testing.T) {
	l := NewStreamLayout(4, 4)
	assert.Equal(t, uint64(48), l.Normal)
	assert.Equal(t, uint64(4*12*4), l.Texcoord0)
	assert.Equal(t, uint64(4*12*4+32), l.Index)
	assert.Equal(t, uint64(4*12*4+32+16), l.Size)
}

func TestPackEmptyGeometry(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	mesh, err := Pack(d, "empty", Geometry{})
	require.NoError(t, err)

	assert.Nil(t, mesh.Buffer)
	assert.Empty(t, mesh.Submeshes)
	assert.False(t, mesh.Bounds.Valid())
	assert.Empty(t, d.Buffers)
}

func TestPackRejectsMismatchedStreams(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	_, err := Pack(d, "bad", Geometry{
		Positions: []mgl32.Vec3{{}, {}, {}},
		Normals:   []mgl32.Vec3{{}},
	})
	assert.ErrorIs(t, err, ErrStreamLength)
}

func TestPlane(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	mesh, err := NewPlane(d)
	require.NoError(t, err)

	require.Len(t, d.Buffers, 1)
	buf := d.Buffers[0]
	assert.Equal(t, gpu.BufferUsageVertex|gpu.BufferUsageIndex, buf.Desc().Usage)
	assert.Equal(t, NewStreamLayout(4, 6).Size, buf.Desc().Size)

	assert.Equal(t, uint32(4), mesh.TotalVertexCount)
	assert.Equal(t, uint32(6), mesh.TotalIndexCount)
	require.Len(t, mesh.Submeshes, 1)
	assert.Equal(t, -1, mesh.Submeshes[0].MaterialIndex)
	assert.True(t, mesh.Bounds.Valid())

	// Second vertex x coordinate and last index.
	assert.Equal(t, float32(0.5), common.Float32At(buf.Data, int(mesh.PositionOffset)+12))
	last := buf.Data[mesh.IndexOffset+5*IndexSize:]
	assert.Equal(t, byte(2), last[0])

	// Normal of the first vertex is +Y.
	assert.Equal(t, float32(1), common.Float32At(buf.Data, int(mesh.NormalOffset)+4))
}

func TestMeshReferenceCounting(t *testing.T) {
	d := gputest.NewDevice(0, 0)
	mesh, err := NewPlane(d)
	require.NoError(t, err)
	buf := d.Buffers[0]

	mesh.Retain()
	assert.Equal(t, 2, mesh.References())

	mesh.Release()
	assert.False(t, buf.Released)
	mesh.Release()
	assert.True(t, buf.Released)
	assert.Nil(t, mesh.Buffer)
}
