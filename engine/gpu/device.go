package gpu

import "errors"

var (
	// ErrDeviceLost is returned when the underlying device can no longer accept work.
	ErrDeviceLost = errors.New("gpu device lost")

	// ErrInvalidDescriptor is returned when a resource descriptor cannot describe a valid resource.
	ErrInvalidDescriptor = errors.New("invalid resource descriptor")

	// ErrNoRenderPass is returned when a draw is recorded outside a render pass.
	ErrNoRenderPass = errors.New("no render pass is active")
)

// Push constant layout shared by every program: the model matrix followed by the cascade index.
const (
	PushConstantModelOffset   = 0
	PushConstantCascadeOffset = 64
	PushConstantSize          = 80
)

// Descriptor set numbers shared by every program.
const (
	SetScene    = 0
	SetMaterial = 1
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// ImageDesc describes an image to create.
type ImageDesc struct {
	Label     string
	Width     uint32
	Height    uint32
	Layers    uint32
	MipLevels uint32
	Format    Format
	Usage     ImageUsage
	Kind      ImageKind
}

// SamplerDesc describes a sampler to create. The zero value is a linear, repeating sampler.
type SamplerDesc struct {
	Label         string
	MagFilter     Filter
	MinFilter     Filter
	MipmapMode    MipmapMode
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	MinLod        float32
	MaxLod        float32
	MaxAnisotropy float32
	Border        BorderColor
}

// VertexStream is one non-interleaved vertex buffer binding consumed by a program.
type VertexStream struct {
	Format Format
	Stride uint32
}

// PipelineDesc describes a graphics pipeline for one of the built-in programs.
// Cull mode is dynamic state set on the command buffer.
type PipelineDesc struct {
	Label          string
	Program        Program
	Streams        []VertexStream
	ColorFormat    Format
	DepthFormat    Format
	DepthWrite     bool
	DepthCompare   CompareOp
	DepthBias      float32
	DepthBiasSlope float32
	DepthClamp     bool
	Subpass        int
}

// Buffer is a device buffer handle.
type Buffer interface {
	Desc() BufferDesc
	Release()
}

// Image is a device image handle.
type Image interface {
	Desc() ImageDesc
	Release()
}

// Sampler is a device sampler handle.
type Sampler interface {
	Desc() SamplerDesc
	Release()
}

// Pipeline is a compiled graphics pipeline handle.
type Pipeline interface {
	Desc() PipelineDesc
	Release()
}

// Device creates resources and command buffers. Resource creation is safe for concurrent use;
// a CommandBuffer is recorded by one goroutine at a time.
type Device interface {
	// CreateBuffer creates a buffer and, when contents is non-empty, uploads it at offset zero.
	//
	// Parameters:
	//   - desc: the buffer descriptor; Size must be at least len(contents)
	//   - contents: optional initial contents
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: ErrInvalidDescriptor or a backend error
	CreateBuffer(desc BufferDesc, contents []byte) (Buffer, error)

	// WriteBuffer writes data into buf at offset. Writes are ordered before the next Submit.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the destination byte offset
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if the write falls outside the buffer
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// CreateImage creates an image. mips holds tightly packed texels for each mip level of layer 0;
	// every other layer is initialised with the same texels. Depth images treat the first four bytes
	// of mips[0] as the float32 clear depth.
	//
	// Parameters:
	//   - desc: the image descriptor
	//   - mips: optional initial texels, one entry per mip level
	//
	// Returns:
	//   - Image: the created image
	//   - error: ErrInvalidDescriptor or a backend error
	CreateImage(desc ImageDesc, mips ...[]byte) (Image, error)

	// CreateSampler creates a sampler.
	//
	// Parameters:
	//   - desc: the sampler descriptor
	//
	// Returns:
	//   - Sampler: the created sampler
	//   - error: a backend error
	CreateSampler(desc SamplerDesc) (Sampler, error)

	// CreatePipeline compiles one of the built-in programs with the given fixed-function state.
	//
	// Parameters:
	//   - desc: the pipeline descriptor
	//
	// Returns:
	//   - Pipeline: the created pipeline
	//   - error: a backend error
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	// MaxSamplerAnisotropy reports the largest anisotropy a sampler may request.
	//
	// Returns:
	//   - float32: the maximum anisotropy, at least 1
	MaxSamplerAnisotropy() float32

	// SwapchainImage returns the presentable image acquired for the current frame, or nil when the
	// device has no surface or no image has been acquired.
	//
	// Returns:
	//   - Image: the current swapchain image or nil
	SwapchainImage() Image

	// BeginCommands starts recording a command buffer.
	//
	// Returns:
	//   - CommandBuffer: the recorder
	//   - error: ErrDeviceLost or a backend error
	BeginCommands() (CommandBuffer, error)

	// Submit finishes cmd and queues it for execution.
	//
	// Parameters:
	//   - cmd: a command buffer returned by BeginCommands
	//
	// Returns:
	//   - error: any error recorded while building cmd, or a submission error
	Submit(cmd CommandBuffer) error

	// Release destroys the device. Resources must be released first.
	Release()
}

// ImageBarrier transitions a range of array layers of an image between two layouts.
// A LayerCount of zero covers every layer.
type ImageBarrier struct {
	Image      Image
	Old        ImageLayout
	New        ImageLayout
	BaseLayer  uint32
	LayerCount uint32
}

// ColorAttachment is the color target of a render pass.
type ColorAttachment struct {
	Image Image
	Clear [4]float32
}

// DepthAttachment is the depth target of a render pass, restricted to one array layer.
type DepthAttachment struct {
	Image Image
	Layer uint32
	Clear float32
	Store bool
}

// RenderPassDesc describes a render pass and how many subpasses it runs.
type RenderPassDesc struct {
	Label     string
	Color     *ColorAttachment
	Depth     *DepthAttachment
	Subpasses int
}

// CommandBuffer records GPU work. Recording errors are deferred to Device.Submit.
type CommandBuffer interface {
	// Barrier records an image layout transition.
	Barrier(b ImageBarrier)

	// BeginRenderPass starts a render pass at subpass zero.
	BeginRenderPass(desc RenderPassDesc)

	// NextSubpass advances to the next subpass of the active render pass.
	NextSubpass()

	// EndRenderPass ends the active render pass.
	EndRenderPass()

	// BindPipeline selects the pipeline used by subsequent draws.
	BindPipeline(p Pipeline)

	// SetCullMode sets the face culling used by subsequent draws.
	SetCullMode(mode CullMode)

	// BindUniformBuffer binds a whole buffer as a uniform block.
	BindUniformBuffer(set, binding uint32, buf Buffer)

	// BindTexture binds an image and sampler pair.
	BindTexture(set, binding uint32, img Image, smp Sampler)

	// PushConstants updates the per-draw constant block at offset.
	PushConstants(offset uint32, data []byte)

	// BindVertexBuffers binds len(offsets) streams of buf starting at slot first.
	BindVertexBuffers(first uint32, buf Buffer, offsets []uint64)

	// BindIndexBuffer binds buf as a uint32 index buffer starting at offset.
	BindIndexBuffer(buf Buffer, offset uint64)

	// Draw records a non-indexed draw.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)

	// DrawIndexed records an indexed draw.
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}
