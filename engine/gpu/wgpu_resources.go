package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	desc   BufferDesc
	buffer *wgpu.Buffer
}

func (b *wgpuBuffer) Desc() BufferDesc {
	return b.desc
}

func (b *wgpuBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

type wgpuImage struct {
	desc       ImageDesc
	texture    *wgpu.Texture
	format     wgpu.TextureFormat
	view       *wgpu.TextureView
	layerViews []*wgpu.TextureView
	layout     ImageLayout

	// borrowed images belong to the swapchain and are released by Present.
	borrowed bool
}

func (i *wgpuImage) Desc() ImageDesc {
	return i.desc
}

// createViews creates the sampling view matching the image kind plus one single-layer view per
// array layer for use as a render attachment.
func (i *wgpuImage) createViews() error {
	aspect := wgpu.TextureAspectAll
	if i.desc.Format.IsDepth() {
		aspect = wgpu.TextureAspectDepthOnly
	}

	view, err := i.texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           i.desc.Label,
		Format:          i.format,
		Dimension:       toViewDimension(i.desc.Kind),
		BaseMipLevel:    0,
		MipLevelCount:   i.desc.MipLevels,
		BaseArrayLayer:  0,
		ArrayLayerCount: i.desc.Layers,
		Aspect:          aspect,
	})
	if err != nil {
		return err
	}
	i.view = view

	if i.desc.Usage&(ImageUsageColorAttachment|ImageUsageDepthAttachment) == 0 && !i.desc.Format.IsDepth() {
		return nil
	}

	for layer := uint32(0); layer < i.desc.Layers; layer++ {
		lv, err := i.texture.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s Layer %d", i.desc.Label, layer),
			Format:          i.format,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  layer,
			ArrayLayerCount: 1,
			Aspect:          aspect,
		})
		if err != nil {
			return err
		}
		i.layerViews = append(i.layerViews, lv)
	}
	return nil
}

func (i *wgpuImage) attachmentView(layer uint32) (*wgpu.TextureView, error) {
	if int(layer) >= len(i.layerViews) {
		return nil, fmt.Errorf("%w: image %q has no attachment view for layer %d", ErrInvalidDescriptor, i.desc.Label, layer)
	}
	return i.layerViews[layer], nil
}

func (i *wgpuImage) Release() {
	if i.borrowed {
		return
	}
	for _, lv := range i.layerViews {
		lv.Release()
	}
	i.layerViews = nil
	if i.view != nil {
		i.view.Release()
		i.view = nil
	}
	if i.texture != nil {
		i.texture.Release()
		i.texture = nil
	}
}

type wgpuSampler struct {
	desc    SamplerDesc
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Desc() SamplerDesc {
	return s.desc
}

func (s *wgpuSampler) Release() {
	if s.sampler != nil {
		s.sampler.Release()
		s.sampler = nil
	}
}

// pipelineVariant is the render state WebGPU bakes into a pipeline but the command buffer treats as dynamic.
type pipelineVariant struct {
	cull        CullMode
	colorFormat wgpu.TextureFormat
	hasColor    bool
}

type wgpuPipeline struct {
	desc     PipelineDesc
	device   *wgpuDevice
	layout   *programLayout
	variants map[pipelineVariant]*wgpu.RenderPipeline
}

func (p *wgpuPipeline) Desc() PipelineDesc {
	return p.desc
}

// variant returns the compiled pipeline for the given dynamic state, creating it on first use.
func (p *wgpuPipeline) variant(key pipelineVariant) (*wgpu.RenderPipeline, error) {
	if rp, ok := p.variants[key]; ok {
		return rp, nil
	}

	buffers := make([]wgpu.VertexBufferLayout, len(p.desc.Streams))
	for i, s := range p.desc.Streams {
		vf, ok := vertexFormats[s.Format]
		if !ok {
			return nil, fmt.Errorf("%w: pipeline %q stream %d has unsupported format %s", ErrInvalidDescriptor, p.desc.Label, i, s.Format)
		}
		buffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: uint64(s.Stride),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{{
				Format:         vf,
				Offset:         0,
				ShaderLocation: uint32(i),
			}},
		}
	}

	var fragment *wgpu.FragmentState
	if entry := p.layout.reflection.fragmentEntry; entry != "" {
		fragment = &wgpu.FragmentState{
			Module:     p.layout.module,
			EntryPoint: entry,
		}
		if key.hasColor {
			writeMask := wgpu.ColorWriteMaskAll
			if p.desc.Program != ProgramLighting {
				writeMask = wgpu.ColorWriteMaskNone
			}
			fragment.Targets = []wgpu.ColorTargetState{{
				Format:    key.colorFormat,
				WriteMask: writeMask,
			}}
		}
	}

	p.device.mu.Lock()
	defer p.device.mu.Unlock()

	created, err := p.device.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.desc.Label,
		Layout: p.layout.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.layout.module,
			EntryPoint: p.layout.reflection.vertexEntry,
			Buffers:    buffers,
		},
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toCullMode(key.cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled:   p.desc.DepthWrite,
			DepthCompare:        toCompareFunction(p.desc.DepthCompare),
			DepthBias:           int32(p.desc.DepthBias),
			DepthBiasSlopeScale: p.desc.DepthBiasSlope,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline %q: %w", p.desc.Label, err)
	}

	p.variants[key] = created
	return created, nil
}

func (p *wgpuPipeline) Release() {
	for key, rp := range p.variants {
		rp.Release()
		delete(p.variants, key)
	}
}
