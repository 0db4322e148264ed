package gputest

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
)

// CommandBuffer records commands and checks the same ordering rules a real backend enforces.
type CommandBuffer struct {
	Commands []Command
	Err      error

	inPass   bool
	pass     gpu.RenderPassDesc
	subpass  int
	pipeline *Pipeline
	cull     gpu.CullMode
	push     [gpu.PushConstantSize]byte
}

var _ gpu.CommandBuffer = &CommandBuffer{}

func (c *CommandBuffer) fail(err error) {
	if c.Err == nil {
		c.Err = err
	}
}

func (c *CommandBuffer) record(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

func (c *CommandBuffer) Barrier(b gpu.ImageBarrier) {
	if img, ok := b.Image.(*Image); ok {
		img.Layout = b.New
	}
	c.record(Command{Op: OpBarrier, Barrier: b})
}

func (c *CommandBuffer) BeginRenderPass(desc gpu.RenderPassDesc) {
	if c.inPass {
		c.fail(errors.New("render pass begun while another is active"))
	}
	c.inPass = true
	c.pass = desc
	c.subpass = 0
	c.pipeline = nil
	c.record(Command{Op: OpBeginRenderPass, Pass: desc})
}

func (c *CommandBuffer) NextSubpass() {
	if !c.inPass {
		c.fail(fmt.Errorf("next subpass: %w", gpu.ErrNoRenderPass))
		return
	}
	c.subpass++
	if c.subpass >= max(c.pass.Subpasses, 1) {
		c.fail(fmt.Errorf("render pass %q has only %d subpasses", c.pass.Label, c.pass.Subpasses))
	}
	c.pipeline = nil
	c.record(Command{Op: OpNextSubpass, Pass: c.pass, Subpass: c.subpass})
}

func (c *CommandBuffer) EndRenderPass() {
	if !c.inPass {
		c.fail(fmt.Errorf("end render pass: %w", gpu.ErrNoRenderPass))
	}
	c.inPass = false
	c.pipeline = nil
	c.record(Command{Op: OpEndRenderPass, Pass: c.pass})
}

func (c *CommandBuffer) BindPipeline(p gpu.Pipeline) {
	rp, _ := p.(*Pipeline)
	if rp == nil {
		c.fail(fmt.Errorf("%w: foreign pipeline", gpu.ErrInvalidDescriptor))
	} else if rp.desc.Subpass != c.subpass {
		c.fail(fmt.Errorf("pipeline %q built for subpass %d bound in subpass %d", rp.desc.Label, rp.desc.Subpass, c.subpass))
	}
	c.pipeline = rp
	c.record(Command{Op: OpBindPipeline, Pipeline: rp, Subpass: c.subpass})
}

func (c *CommandBuffer) SetCullMode(mode gpu.CullMode) {
	c.cull = mode
	c.record(Command{Op: OpSetCullMode, Cull: mode})
}

func (c *CommandBuffer) BindUniformBuffer(set, binding uint32, buf gpu.Buffer) {
	b, _ := buf.(*Buffer)
	c.record(Command{Op: OpBindUniform, Set: set, Binding: binding, Buffer: b})
}

func (c *CommandBuffer) BindTexture(set, binding uint32, img gpu.Image, smp gpu.Sampler) {
	i, _ := img.(*Image)
	s, _ := smp.(*Sampler)
	if i == nil || s == nil {
		c.fail(fmt.Errorf("%w: incomplete texture at %d/%d", gpu.ErrInvalidDescriptor, set, binding))
	}
	c.record(Command{Op: OpBindTexture, Set: set, Binding: binding, Image: i, Sampler: s})
}

func (c *CommandBuffer) PushConstants(offset uint32, data []byte) {
	if int(offset)+len(data) > len(c.push) {
		c.fail(fmt.Errorf("push constants at %d overflow the block", offset))
		return
	}
	copy(c.push[offset:], data)
	c.record(Command{Op: OpPushConstants, Offset: uint64(offset), Data: append([]byte(nil), data...)})
}

func (c *CommandBuffer) BindVertexBuffers(first uint32, buf gpu.Buffer, offsets []uint64) {
	b, _ := buf.(*Buffer)
	c.record(Command{Op: OpBindVertex, First: first, Buffer: b, Offsets: append([]uint64(nil), offsets...)})
}

func (c *CommandBuffer) BindIndexBuffer(buf gpu.Buffer, offset uint64) {
	b, _ := buf.(*Buffer)
	c.record(Command{Op: OpBindIndex, Buffer: b, Offset: offset})
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.checkDraw()
	c.record(Command{
		Op:            OpDraw,
		Pass:          c.pass,
		Subpass:       c.subpass,
		Pipeline:      c.pipeline,
		Cull:          c.cull,
		Count:         vertexCount,
		InstanceCount: instanceCount,
		First:         firstVertex,
		Push:          c.push,
	})
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	c.checkDraw()
	c.record(Command{
		Op:            OpDrawIndexed,
		Pass:          c.pass,
		Subpass:       c.subpass,
		Pipeline:      c.pipeline,
		Cull:          c.cull,
		Count:         indexCount,
		InstanceCount: instanceCount,
		First:         firstIndex,
		VertexOffset:  vertexOffset,
		Push:          c.push,
	})
}

func (c *CommandBuffer) checkDraw() {
	if !c.inPass {
		c.fail(fmt.Errorf("draw: %w", gpu.ErrNoRenderPass))
	}
	if c.pipeline == nil {
		c.fail(errors.New("draw without a bound pipeline"))
	}
}

// Ops lists the recorded operations in order.
func (c *CommandBuffer) Ops() []Op {
	ops := make([]Op, len(c.Commands))
	for i, cmd := range c.Commands {
		ops[i] = cmd.Op
	}
	return ops
}

// Draws returns the recorded draw commands, indexed or not.
func (c *CommandBuffer) Draws() []Command {
	var draws []Command
	for _, cmd := range c.Commands {
		if cmd.Op == OpDraw || cmd.Op == OpDrawIndexed {
			draws = append(draws, cmd)
		}
	}
	return draws
}

// DrawsIn returns the draw commands recorded inside render passes with the given label.
func (c *CommandBuffer) DrawsIn(label string) []Command {
	var draws []Command
	for _, cmd := range c.Draws() {
		if cmd.Pass.Label == label {
			draws = append(draws, cmd)
		}
	}
	return draws
}

// Passes returns the begin-render-pass commands in order.
func (c *CommandBuffer) Passes() []gpu.RenderPassDesc {
	var passes []gpu.RenderPassDesc
	for _, cmd := range c.Commands {
		if cmd.Op == OpBeginRenderPass {
			passes = append(passes, cmd.Pass)
		}
	}
	return passes
}
