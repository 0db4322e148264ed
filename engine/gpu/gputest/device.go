// Package gputest provides an in-memory gpu.Device that records every resource and command, for
// exercising renderers without a GPU.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
)

// Buffer is a recorded buffer. Data mirrors every write.
type Buffer struct {
	desc     gpu.BufferDesc
	Data     []byte
	Released bool
}

func (b *Buffer) Desc() gpu.BufferDesc { return b.desc }
func (b *Buffer) Release()             { b.Released = true }

// Image is a recorded image with the mip data it was created with.
type Image struct {
	desc     gpu.ImageDesc
	Mips     [][]byte
	Layout   gpu.ImageLayout
	Released bool
}

func (i *Image) Desc() gpu.ImageDesc { return i.desc }
func (i *Image) Release()            { i.Released = true }

// Sampler is a recorded sampler.
type Sampler struct {
	desc     gpu.SamplerDesc
	Released bool
}

func (s *Sampler) Desc() gpu.SamplerDesc { return s.desc }
func (s *Sampler) Release()              { s.Released = true }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	desc     gpu.PipelineDesc
	Released bool
}

func (p *Pipeline) Desc() gpu.PipelineDesc { return p.desc }
func (p *Pipeline) Release()               { p.Released = true }

// Op names a recorded command.
type Op string

const (
	OpBarrier         Op = "barrier"
	OpBeginRenderPass Op = "begin-render-pass"
	OpNextSubpass     Op = "next-subpass"
	OpEndRenderPass   Op = "end-render-pass"
	OpBindPipeline    Op = "bind-pipeline"
	OpSetCullMode     Op = "set-cull-mode"
	OpBindUniform     Op = "bind-uniform"
	OpBindTexture     Op = "bind-texture"
	OpPushConstants   Op = "push-constants"
	OpBindVertex      Op = "bind-vertex-buffers"
	OpBindIndex       Op = "bind-index-buffer"
	OpDraw            Op = "draw"
	OpDrawIndexed     Op = "draw-indexed"
)

// Command is one recorded command. Only the fields relevant to Op are set. Draw commands carry a
// snapshot of the state they would execute with.
type Command struct {
	Op       Op
	Barrier  gpu.ImageBarrier
	Pass     gpu.RenderPassDesc
	Subpass  int
	Pipeline *Pipeline
	Cull     gpu.CullMode
	Set      uint32
	Binding  uint32
	Buffer   *Buffer
	Image    *Image
	Sampler  *Sampler
	Offset   uint64
	Offsets  []uint64
	Data     []byte

	Count         uint32
	InstanceCount uint32
	First         uint32
	VertexOffset  int32

	Push [gpu.PushConstantSize]byte
}

// Device is a recording gpu.Device. All fields may be inspected by tests.
type Device struct {
	mu sync.Mutex

	Buffers   []*Buffer
	Images    []*Image
	Samplers  []*Sampler
	Pipelines []*Pipeline
	Submitted []*CommandBuffer

	// Swapchain is returned by SwapchainImage; nil models a headless device.
	Swapchain *Image

	// Anisotropy is reported by MaxSamplerAnisotropy.
	Anisotropy float32

	// FailImages makes CreateImage fail for images whose label is in the set.
	FailImages map[string]bool

	Released bool
}

var _ gpu.Device = &Device{}

// NewDevice returns a recording device with a swapchain image of the given size.
// A zero width or height gives a headless device.
func NewDevice(width, height uint32) *Device {
	d := &Device{Anisotropy: 16}
	if width > 0 && height > 0 {
		d.Swapchain = &Image{desc: gpu.ImageDesc{
			Label:     "Swapchain",
			Width:     width,
			Height:    height,
			Layers:    1,
			MipLevels: 1,
			Format:    gpu.FormatB8G8R8A8Unorm,
			Usage:     gpu.ImageUsageColorAttachment,
			Kind:      gpu.ImageKind2D,
		}}
	}
	return d
}

func (d *Device) CreateBuffer(desc gpu.BufferDesc, contents []byte) (gpu.Buffer, error) {
	if desc.Size == 0 || uint64(len(contents)) > desc.Size {
		return nil, fmt.Errorf("%w: buffer %q size %d with %d bytes", gpu.ErrInvalidDescriptor, desc.Label, desc.Size, len(contents))
	}
	b := &Buffer{desc: desc, Data: make([]byte, desc.Size)}
	copy(b.Data, contents)

	d.mu.Lock()
	d.Buffers = append(d.Buffers, b)
	d.mu.Unlock()
	return b, nil
}

func (d *Device) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("%w: foreign buffer", gpu.ErrInvalidDescriptor)
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("%w: write of %d bytes at %d overflows %q", gpu.ErrInvalidDescriptor, len(data), offset, b.desc.Label)
	}
	copy(b.Data[offset:], data)
	return nil
}

func (d *Device) CreateImage(desc gpu.ImageDesc, mips ...[]byte) (gpu.Image, error) {
	if desc.Width == 0 || desc.Height == 0 || desc.Layers == 0 || desc.Format == gpu.FormatUndefined {
		return nil, fmt.Errorf("%w: image %q", gpu.ErrInvalidDescriptor, desc.Label)
	}
	if d.FailImages[desc.Label] {
		return nil, fmt.Errorf("image %q: %w", desc.Label, gpu.ErrDeviceLost)
	}
	img := &Image{desc: desc, Mips: mips}

	d.mu.Lock()
	d.Images = append(d.Images, img)
	d.mu.Unlock()
	return img, nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	s := &Sampler{desc: desc}

	d.mu.Lock()
	d.Samplers = append(d.Samplers, s)
	d.mu.Unlock()
	return s, nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if desc.DepthFormat == gpu.FormatUndefined {
		return nil, fmt.Errorf("%w: pipeline %q has no depth format", gpu.ErrInvalidDescriptor, desc.Label)
	}
	p := &Pipeline{desc: desc}

	d.mu.Lock()
	d.Pipelines = append(d.Pipelines, p)
	d.mu.Unlock()
	return p, nil
}

func (d *Device) MaxSamplerAnisotropy() float32 {
	return d.Anisotropy
}

func (d *Device) SwapchainImage() gpu.Image {
	if d.Swapchain == nil {
		return nil
	}
	return d.Swapchain
}

func (d *Device) BeginCommands() (gpu.CommandBuffer, error) {
	return &CommandBuffer{}, nil
}

func (d *Device) Submit(cmd gpu.CommandBuffer) error {
	c, ok := cmd.(*CommandBuffer)
	if !ok {
		return fmt.Errorf("%w: foreign command buffer", gpu.ErrInvalidDescriptor)
	}
	if c.inPass {
		c.fail(errors.New("submitted with an open render pass"))
	}
	if c.Err != nil {
		return c.Err
	}

	d.mu.Lock()
	d.Submitted = append(d.Submitted, c)
	d.mu.Unlock()
	return nil
}

func (d *Device) Release() {
	d.Released = true
}

// LastSubmitted returns the most recently submitted command buffer, or nil.
func (d *Device) LastSubmitted() *CommandBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Submitted) == 0 {
		return nil
	}
	return d.Submitted[len(d.Submitted)-1]
}

// ImageByLabel returns the most recently created image with the given label, or nil.
func (d *Device) ImageByLabel(label string) *Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.Images) - 1; i >= 0; i-- {
		if d.Images[i].desc.Label == label {
			return d.Images[i]
		}
	}
	return nil
}

// PipelineFor returns the first pipeline created for the program, or nil.
func (d *Device) PipelineFor(program gpu.Program) *Pipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.Pipelines {
		if p.desc.Program == program {
			return p
		}
	}
	return nil
}
