package gpu

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// slotKey addresses a logical binding: uniform blocks at binding 0 and texture pairs at 1..n.
type slotKey struct {
	set, binding uint32
}

type boundResource struct {
	buffer  *wgpuBuffer
	image   *wgpuImage
	sampler *wgpuSampler
}

// bindGroupKey identifies a bind group by its layout and the resources bound into it.
type bindGroupKey struct {
	layout    *wgpu.BindGroupLayout
	resources [9]any
}

// wgpuCommandBuffer records into a WebGPU command encoder. Subpasses are emulated with consecutive
// render passes that load the previous attachment contents, and push constants are emulated with a
// dynamically offset uniform block in an arena buffer uploaded at submit.
type wgpuCommandBuffer struct {
	device  *wgpuDevice
	encoder *wgpu.CommandEncoder

	pass     *wgpu.RenderPassEncoder
	passDesc RenderPassDesc
	subpass  int

	pipeline *wgpuPipeline
	cull     CullMode
	bound    map[slotKey]boundResource
	push     [PushConstantSize]byte
	pushData []byte

	bindGroups map[bindGroupKey]*wgpu.BindGroup
	err        error
}

var _ CommandBuffer = &wgpuCommandBuffer{}

func newWGPUCommandBuffer(d *wgpuDevice, encoder *wgpu.CommandEncoder) *wgpuCommandBuffer {
	return &wgpuCommandBuffer{
		device:     d,
		encoder:    encoder,
		bound:      make(map[slotKey]boundResource),
		bindGroups: make(map[bindGroupKey]*wgpu.BindGroup),
	}
}

// fail keeps the first recording error; it is reported by Submit.
func (c *wgpuCommandBuffer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *wgpuCommandBuffer) Barrier(b ImageBarrier) {
	img, ok := b.Image.(*wgpuImage)
	if !ok {
		c.fail(fmt.Errorf("%w: barrier on a foreign image", ErrInvalidDescriptor))
		return
	}
	// WebGPU tracks resource state itself; the layout is kept for debugging.
	img.layout = b.New
}

func (c *wgpuCommandBuffer) BeginRenderPass(desc RenderPassDesc) {
	if c.pass != nil {
		c.fail(errors.New("render pass begun while another is active"))
		return
	}
	c.passDesc = desc
	c.subpass = 0
	c.beginPass(true)
}

// beginPass opens a WebGPU render pass for the current subpass. The first subpass clears the
// attachments; later subpasses load what the previous one stored.
func (c *wgpuCommandBuffer) beginPass(clear bool) {
	loadOp := wgpu.LoadOpLoad
	if clear {
		loadOp = wgpu.LoadOpClear
	}
	lastSubpass := c.subpass >= max(c.passDesc.Subpasses, 1)-1

	rp := &wgpu.RenderPassDescriptor{Label: c.passDesc.Label}

	if color := c.passDesc.Color; color != nil {
		img, ok := color.Image.(*wgpuImage)
		if !ok {
			c.fail(fmt.Errorf("%w: color attachment is not a WebGPU image", ErrInvalidDescriptor))
			return
		}
		view, err := img.attachmentView(0)
		if err != nil {
			c.fail(err)
			return
		}
		rp.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  loadOp,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(color.Clear[0]),
				G: float64(color.Clear[1]),
				B: float64(color.Clear[2]),
				A: float64(color.Clear[3]),
			},
		}}
	}

	if depth := c.passDesc.Depth; depth != nil {
		img, ok := depth.Image.(*wgpuImage)
		if !ok {
			c.fail(fmt.Errorf("%w: depth attachment is not a WebGPU image", ErrInvalidDescriptor))
			return
		}
		view, err := img.attachmentView(depth.Layer)
		if err != nil {
			c.fail(err)
			return
		}
		storeOp := wgpu.StoreOpStore
		if lastSubpass && !depth.Store {
			storeOp = wgpu.StoreOpDiscard
		}
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    storeOp,
			DepthClearValue: depth.Clear,
		}
	}

	c.pass = c.encoder.BeginRenderPass(rp)
}

func (c *wgpuCommandBuffer) NextSubpass() {
	if c.pass == nil {
		c.fail(fmt.Errorf("next subpass: %w", ErrNoRenderPass))
		return
	}
	c.endPass()
	c.subpass++
	c.beginPass(false)
}

func (c *wgpuCommandBuffer) EndRenderPass() {
	if c.pass == nil {
		c.fail(fmt.Errorf("end render pass: %w", ErrNoRenderPass))
		return
	}
	c.endPass()
	c.passDesc = RenderPassDesc{}
}

func (c *wgpuCommandBuffer) endPass() {
	c.pass.End()
	c.pass.Release()
	c.pass = nil
	c.pipeline = nil
}

func (c *wgpuCommandBuffer) BindPipeline(p Pipeline) {
	wp, ok := p.(*wgpuPipeline)
	if !ok {
		c.fail(fmt.Errorf("%w: foreign pipeline", ErrInvalidDescriptor))
		return
	}
	c.pipeline = wp
}

func (c *wgpuCommandBuffer) SetCullMode(mode CullMode) {
	c.cull = mode
}

func (c *wgpuCommandBuffer) BindUniformBuffer(set, binding uint32, buf Buffer) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		c.fail(fmt.Errorf("%w: foreign buffer bound at %d/%d", ErrInvalidDescriptor, set, binding))
		return
	}
	c.bound[slotKey{set, binding}] = boundResource{buffer: wb}
}

func (c *wgpuCommandBuffer) BindTexture(set, binding uint32, img Image, smp Sampler) {
	wi, ok := img.(*wgpuImage)
	ws, ok2 := smp.(*wgpuSampler)
	if !ok || !ok2 {
		c.fail(fmt.Errorf("%w: foreign texture bound at %d/%d", ErrInvalidDescriptor, set, binding))
		return
	}
	c.bound[slotKey{set, binding}] = boundResource{image: wi, sampler: ws}
}

func (c *wgpuCommandBuffer) PushConstants(offset uint32, data []byte) {
	if int(offset)+len(data) > len(c.push) {
		c.fail(fmt.Errorf("push constants at %d overflow the %d byte block", offset, PushConstantSize))
		return
	}
	copy(c.push[offset:], data)
}

func (c *wgpuCommandBuffer) BindVertexBuffers(first uint32, buf Buffer, offsets []uint64) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || c.pass == nil {
		c.fail(fmt.Errorf("bind vertex buffers: %w", ErrNoRenderPass))
		return
	}
	for i, off := range offsets {
		c.pass.SetVertexBuffer(first+uint32(i), wb.buffer, off, wgpu.WholeSize)
	}
}

func (c *wgpuCommandBuffer) BindIndexBuffer(buf Buffer, offset uint64) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || c.pass == nil {
		c.fail(fmt.Errorf("bind index buffer: %w", ErrNoRenderPass))
		return
	}
	c.pass.SetIndexBuffer(wb.buffer, wgpu.IndexFormatUint32, offset, wgpu.WholeSize)
}

func (c *wgpuCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !c.prepareDraw() {
		return
	}
	c.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *wgpuCommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	if !c.prepareDraw() {
		return
	}
	c.pass.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// prepareDraw selects the pipeline variant for the current pass and cull mode, then sets every
// bind group the program declares. It reports false when the draw must be dropped.
func (c *wgpuCommandBuffer) prepareDraw() bool {
	if c.pass == nil {
		c.fail(fmt.Errorf("draw: %w", ErrNoRenderPass))
		return false
	}
	if c.pipeline == nil {
		c.fail(errors.New("draw without a bound pipeline"))
		return false
	}

	key := pipelineVariant{cull: c.cull}
	if color := c.passDesc.Color; color != nil {
		key.hasColor = true
		key.colorFormat = color.Image.(*wgpuImage).format
	}
	rp, err := c.pipeline.variant(key)
	if err != nil {
		c.fail(err)
		return false
	}
	c.pass.SetPipeline(rp)

	layout := c.pipeline.layout
	for g, desc := range layout.reflection.groups {
		if g == dynamicGroup {
			offset, ok := c.pushSlot()
			if !ok {
				return false
			}
			c.pass.SetBindGroup(uint32(g), layout.pushGroup, []uint32{offset})
			continue
		}
		bg, err := c.bindGroup(uint32(g), layout.groupLayouts[g], desc)
		if err != nil {
			c.fail(err)
			return false
		}
		c.pass.SetBindGroup(uint32(g), bg, nil)
	}
	return true
}

// pushSlot appends the current push block to the arena and returns its dynamic offset.
func (c *wgpuCommandBuffer) pushSlot() (uint32, bool) {
	offset := common.AlignUp(uint64(len(c.pushData)), pushAlignment)
	if offset+pushAlignment > c.device.pushArenaSize {
		c.fail(fmt.Errorf("push constant arena exhausted after %d draws", offset/pushAlignment))
		return 0, false
	}
	if grow := int(offset) - len(c.pushData); grow > 0 {
		c.pushData = append(c.pushData, make([]byte, grow)...)
	}
	c.pushData = append(c.pushData, c.push[:]...)
	return uint32(offset), true
}

// bindGroup builds, or reuses, the bind group for one set from the currently bound resources.
// Layout binding 0 takes the uniform block; layout bindings 2n-1 and 2n take the image and
// sampler of logical texture binding n.
func (c *wgpuCommandBuffer) bindGroup(set uint32, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroup, error) {
	key := bindGroupKey{layout: layout}
	if len(desc.Entries) > len(key.resources) {
		return nil, fmt.Errorf("%w: set %d declares %d bindings", ErrInvalidDescriptor, set, len(desc.Entries))
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))

	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
			res, ok := c.bound[slotKey{set, e.Binding}]
			if !ok || res.buffer == nil {
				return nil, fmt.Errorf("%w: no uniform buffer bound at %d/%d", ErrInvalidDescriptor, set, e.Binding)
			}
			entry.Buffer = res.buffer.buffer
			entry.Size = wgpu.WholeSize
			key.resources[i] = res.buffer
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			res, ok := c.bound[slotKey{set, (e.Binding + 1) / 2}]
			if !ok || res.image == nil {
				return nil, fmt.Errorf("%w: no texture bound at %d/%d", ErrInvalidDescriptor, set, (e.Binding+1)/2)
			}
			entry.TextureView = res.image.view
			key.resources[i] = res.image
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			res, ok := c.bound[slotKey{set, e.Binding / 2}]
			if !ok || res.sampler == nil {
				return nil, fmt.Errorf("%w: no sampler bound at %d/%d", ErrInvalidDescriptor, set, e.Binding/2)
			}
			entry.Sampler = res.sampler.sampler
			key.resources[i] = res.sampler
		}
		entries = append(entries, entry)
	}

	if bg, ok := c.bindGroups[key]; ok {
		return bg, nil
	}

	bg, err := c.device.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group for set %d: %w", set, err)
	}
	c.bindGroups[key] = bg
	return bg, nil
}

// release frees the transient objects of a submitted or abandoned command buffer.
func (c *wgpuCommandBuffer) release() {
	for key, bg := range c.bindGroups {
		bg.Release()
		delete(c.bindGroups, key)
	}
	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}
}
