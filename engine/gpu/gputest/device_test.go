package gputest

import (
	"testing"

	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWrites(t *testing.T) {
	d := NewDevice(0, 0)
	assert.Nil(t, d.SwapchainImage())

	buf, err := d.CreateBuffer(gpu.BufferDesc{Label: "b", Size: 8, Usage: gpu.BufferUsageUniform}, []byte{1, 2})
	require.NoError(t, err)

	require.NoError(t, d.WriteBuffer(buf, 4, []byte{9, 9, 9, 9}))
	assert.Equal(t, []byte{1, 2, 0, 0, 9, 9, 9, 9}, buf.(*Buffer).Data)
	assert.ErrorIs(t, d.WriteBuffer(buf, 6, []byte{1, 2, 3}), gpu.ErrInvalidDescriptor)
}

func TestRecordsDrawState(t *testing.T) {
	d := NewDevice(64, 32)
	require.NotNil(t, d.SwapchainImage())

	depth, err := d.CreateImage(gpu.ImageDesc{Label: "depth", Width: 64, Height: 32, Layers: 1, MipLevels: 1, Format: gpu.FormatD32Sfloat})
	require.NoError(t, err)
	p0, err := d.CreatePipeline(gpu.PipelineDesc{Label: "p0", DepthFormat: gpu.FormatD32Sfloat})
	require.NoError(t, err)
	p1, err := d.CreatePipeline(gpu.PipelineDesc{Label: "p1", DepthFormat: gpu.FormatD32Sfloat, Subpass: 1})
	require.NoError(t, err)

	cmd, err := d.BeginCommands()
	require.NoError(t, err)
	cmd.BeginRenderPass(gpu.RenderPassDesc{Label: "main", Depth: &gpu.DepthAttachment{Image: depth, Clear: 1}, Subpasses: 2})
	cmd.BindPipeline(p0)
	cmd.SetCullMode(gpu.CullModeBack)
	cmd.PushConstants(gpu.PushConstantCascadeOffset, []byte{3, 0, 0, 0})
	cmd.DrawIndexed(6, 1, 0, 0, 0)
	cmd.NextSubpass()
	cmd.BindPipeline(p1)
	cmd.Draw(3, 1, 0, 0)
	cmd.EndRenderPass()
	require.NoError(t, d.Submit(cmd))

	rec := d.LastSubmitted()
	draws := rec.DrawsIn("main")
	require.Len(t, draws, 2)
	assert.Equal(t, gpu.CullModeBack, draws[0].Cull)
	assert.Equal(t, byte(3), draws[0].Push[gpu.PushConstantCascadeOffset])
	assert.Equal(t, 1, draws[1].Subpass)
	assert.Equal(t, "p1", draws[1].Pipeline.Desc().Label)
}

func TestSubmitReportsRecordingErrors(t *testing.T) {
	d := NewDevice(0, 0)
	p, err := d.CreatePipeline(gpu.PipelineDesc{Label: "late", DepthFormat: gpu.FormatD32Sfloat, Subpass: 1})
	require.NoError(t, err)

	cmd, err := d.BeginCommands()
	require.NoError(t, err)
	cmd.Draw(3, 1, 0, 0)
	assert.ErrorIs(t, d.Submit(cmd), gpu.ErrNoRenderPass)

	cmd, err = d.BeginCommands()
	require.NoError(t, err)
	cmd.BeginRenderPass(gpu.RenderPassDesc{Label: "single"})
	cmd.BindPipeline(p)
	cmd.EndRenderPass()
	assert.Error(t, d.Submit(cmd))
	assert.Nil(t, d.LastSubmitted())
}
