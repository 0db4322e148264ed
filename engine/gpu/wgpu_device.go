package gpu

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

const (
	// pushAlignment is the WebGPU upper bound for minUniformBufferOffsetAlignment.
	pushAlignment         = 256
	defaultPushArenaSize  = 4 << 20
	maxWGPUAnisotropy     = 16
	defaultSamplerMaxLod  = 32
	depthInitialiserLabel = "Depth Initialiser"
)

// SurfaceDevice is a Device that presents to a window surface.
type SurfaceDevice interface {
	Device

	// ConfigureSurface (re)configures the swapchain. Call on creation and whenever the framebuffer is resized.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	ConfigureSurface(width, height uint32)

	// AcquireSwapchainImage acquires the next presentable image, returned afterwards by SwapchainImage.
	//
	// Returns:
	//   - error: an error if no image could be acquired
	AcquireSwapchainImage() error

	// Present presents the acquired image and releases it.
	Present()
}

// programLayout holds the shader module and layouts shared by every pipeline of one program.
type programLayout struct {
	module         *wgpu.ShaderModule
	reflection     reflectedProgram
	groupLayouts   []*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pushGroup      *wgpu.BindGroup
}

type wgpuDevice struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	surfaceWidth  uint32
	surfaceHeight uint32
	swapchain     *wgpuImage

	vsync                bool
	forceFallbackAdapter bool
	pushArenaSize        uint64
	pushArena            *wgpu.Buffer
	programs             map[Program]*programLayout

	log *zap.Logger
}

var _ SurfaceDevice = &wgpuDevice{}

// NewWGPUDevice creates a WebGPU device. When surfaceDescriptor is nil the device is headless and
// SwapchainImage always returns nil. Failure to acquire an adapter or device panics, as there is
// nothing the viewer can render with.
//
// Parameters:
//   - surfaceDescriptor: the window surface descriptor, or nil
//   - options: a variadic list of WGPUDeviceOption functions
//
// Returns:
//   - SurfaceDevice: the created device
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUDeviceOption) SurfaceDevice {
	runtime.LockOSThread()

	d := &wgpuDevice{
		instance:      wgpu.CreateInstance(nil),
		vsync:         true,
		pushArenaSize: defaultPushArenaSize,
		programs:      make(map[Program]*programLayout),
		log:           logger.Named("gpu"),
	}
	for _, opt := range options {
		opt(d)
	}

	if surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		panic(err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Tsuki Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	arena, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Push Constant Arena",
		Size:  d.pushArenaSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	d.pushArena = arena

	return d
}

func (d *wgpuDevice) ConfigureSurface(width, height uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.surface == nil || width == 0 || height == 0 {
		return
	}

	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]
	for _, f := range capabilities.Formats {
		if f == wgpu.TextureFormatBGRA8Unorm {
			d.surfaceFormat = f
			break
		}
	}

	presentMode := wgpu.PresentModeImmediate
	if d.vsync {
		presentMode = wgpu.PresentModeFifo
	}

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	d.surfaceWidth = width
	d.surfaceHeight = height

	d.log.Debug("surface configured",
		zap.Uint32("width", width),
		zap.Uint32("height", height),
		zap.Stringer("format", fromTextureFormat(d.surfaceFormat)),
		zap.Bool("vsync", d.vsync))
}

func (d *wgpuDevice) AcquireSwapchainImage() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.surface == nil {
		return nil
	}
	if d.swapchain != nil {
		return errors.New("previous swapchain image not yet presented")
	}

	texture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return err
	}

	d.swapchain = &wgpuImage{
		desc: ImageDesc{
			Label:     "Swapchain",
			Width:     d.surfaceWidth,
			Height:    d.surfaceHeight,
			Layers:    1,
			MipLevels: 1,
			Format:    fromTextureFormat(d.surfaceFormat),
			Usage:     ImageUsageColorAttachment,
		},
		texture:    texture,
		view:       view,
		layerViews: []*wgpu.TextureView{view},
		format:     d.surfaceFormat,
		borrowed:   true,
	}
	return nil
}

func (d *wgpuDevice) Present() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.swapchain == nil {
		return
	}

	d.surface.Present()
	d.swapchain.view.Release()
	d.swapchain.texture.Release()
	d.swapchain = nil
}

func (d *wgpuDevice) SwapchainImage() Image {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.swapchain == nil {
		return nil
	}
	return d.swapchain
}

func (d *wgpuDevice) MaxSamplerAnisotropy() float32 {
	return maxWGPUAnisotropy
}

func (d *wgpuDevice) CreateBuffer(desc BufferDesc, contents []byte) (Buffer, error) {
	if desc.Size == 0 || desc.Size < uint64(len(contents)) {
		return nil, fmt.Errorf("%w: buffer %q size %d for %d bytes", ErrInvalidDescriptor, desc.Label, desc.Size, len(contents))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  common.AlignUp(desc.Size, 4),
		Usage: toBufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}
	if len(contents) > 0 {
		d.queue.WriteBuffer(buf, 0, padTo4(contents))
	}
	return &wgpuBuffer{desc: desc, buffer: buf}, nil
}

func (d *wgpuDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok || b.buffer == nil {
		return fmt.Errorf("%w: not a live WebGPU buffer", ErrInvalidDescriptor)
	}
	if offset+uint64(len(data)) > b.desc.Size {
		return fmt.Errorf("write of %d bytes at %d overflows buffer %q (%d bytes)", len(data), offset, b.desc.Label, b.desc.Size)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue.WriteBuffer(b.buffer, offset, padTo4(data))
	return nil
}

func (d *wgpuDevice) CreateImage(desc ImageDesc, mips ...[]byte) (Image, error) {
	format, ok := toTextureFormat(desc.Format)
	if !ok || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: image %q %dx%d %s", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height, desc.Format)
	}
	desc.Layers = max(desc.Layers, 1)
	desc.MipLevels = max(desc.MipLevels, 1)

	usage := toTextureUsage(desc.Usage)
	if len(mips) > 0 {
		if desc.Format.IsDepth() {
			usage |= wgpu.TextureUsageRenderAttachment
		} else {
			usage |= wgpu.TextureUsageCopyDst
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	texture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Layers,
		},
		MipLevelCount: desc.MipLevels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image %q: %w", desc.Label, err)
	}

	img := &wgpuImage{desc: desc, texture: texture, format: format}
	if err := img.createViews(); err != nil {
		img.Release()
		return nil, fmt.Errorf("failed to create views for image %q: %w", desc.Label, err)
	}

	if len(mips) > 0 {
		if desc.Format.IsDepth() {
			err = d.clearDepthLayers(img, mips[0])
		} else {
			d.uploadMips(img, mips)
		}
		if err != nil {
			img.Release()
			return nil, err
		}
	}
	return img, nil
}

// uploadMips writes the texels of every mip level into every layer. Caller holds d.mu.
func (d *wgpuDevice) uploadMips(img *wgpuImage, mips [][]byte) {
	for layer := uint32(0); layer < img.desc.Layers; layer++ {
		w, h := img.desc.Width, img.desc.Height
		for level, pixels := range mips {
			if uint32(level) >= img.desc.MipLevels {
				break
			}
			d.queue.WriteTexture(
				&wgpu.ImageCopyTexture{
					Texture:  img.texture,
					MipLevel: uint32(level),
					Origin:   wgpu.Origin3D{Z: layer},
					Aspect:   wgpu.TextureAspectAll,
				},
				pixels,
				&wgpu.TextureDataLayout{
					Offset:       0,
					BytesPerRow:  w * 4,
					RowsPerImage: h,
				},
				&wgpu.Extent3D{
					Width:              w,
					Height:             h,
					DepthOrArrayLayers: 1,
				},
			)
			w = max(w/2, 1)
			h = max(h/2, 1)
		}
	}
}

// clearDepthLayers initialises a depth image by clearing each layer in a render pass, since depth
// formats cannot be copy destinations. Caller holds d.mu.
func (d *wgpuDevice) clearDepthLayers(img *wgpuImage, value []byte) error {
	clear := float32(1)
	if len(value) >= 4 {
		clear = common.Float32At(value, 0)
	}

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: depthInitialiserLabel})
	if err != nil {
		return err
	}
	defer encoder.Release()

	for _, view := range img.layerViews {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
				View:            view,
				DepthLoadOp:     wgpu.LoadOpClear,
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: clear,
			},
		})
		pass.End()
		pass.Release()
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	d.queue.Submit(commandBuffer)
	return nil
}

func (d *wgpuDevice) CreateSampler(desc SamplerDesc) (Sampler, error) {
	anisotropy := uint16(common.Coalesce(desc.MaxAnisotropy, 1))
	if desc.MagFilter == FilterNearest || desc.MinFilter == FilterNearest || desc.MipmapMode == MipmapModeNearest {
		anisotropy = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	smp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  toAddressMode(desc.AddressU),
		AddressModeV:  toAddressMode(desc.AddressV),
		AddressModeW:  toAddressMode(desc.AddressW),
		MagFilter:     toFilterMode(desc.MagFilter),
		MinFilter:     toFilterMode(desc.MinFilter),
		MipmapFilter:  toMipmapFilterMode(desc.MipmapMode),
		LodMinClamp:   desc.MinLod,
		LodMaxClamp:   common.Coalesce(desc.MaxLod, defaultSamplerMaxLod),
		MaxAnisotropy: min(anisotropy, maxWGPUAnisotropy),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{desc: desc, sampler: smp}, nil
}

func (d *wgpuDevice) CreatePipeline(desc PipelineDesc) (Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	layout, err := d.programLayout(desc.Program)
	if err != nil {
		return nil, err
	}
	return &wgpuPipeline{
		desc:     desc,
		device:   d,
		layout:   layout,
		variants: make(map[pipelineVariant]*wgpu.RenderPipeline),
	}, nil
}

// programLayout compiles a program once and caches its layouts. Caller holds d.mu.
func (d *wgpuDevice) programLayout(p Program) (*programLayout, error) {
	if layout, ok := d.programs[p]; ok {
		return layout, nil
	}

	source, err := ProgramSource(p)
	if err != nil {
		return nil, err
	}

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s program: %w", p, err)
	}

	layout := &programLayout{
		module:     module,
		reflection: reflectProgram(p.String(), source),
	}
	for g, desc := range layout.reflection.groups {
		bgl, err := d.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create bind group layout for group %d: %w", p, g, err)
		}
		layout.groupLayouts = append(layout.groupLayouts, bgl)
	}

	layout.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.String(),
		BindGroupLayouts: layout.groupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pipeline layout: %w", p, err)
	}

	if len(layout.groupLayouts) > dynamicGroup {
		layout.pushGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  p.String() + " Push Constants",
			Layout: layout.groupLayouts[dynamicGroup],
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  d.pushArena,
				Offset:  0,
				Size:    PushConstantSize,
			}},
		})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to create push constant bind group: %w", p, err)
		}
	}

	d.programs[p] = layout
	d.log.Debug("program compiled", zap.Stringer("program", p), zap.Int("groups", len(layout.groupLayouts)))
	return layout, nil
}

func (d *wgpuDevice) BeginCommands() (CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return nil, ErrDeviceLost
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	return newWGPUCommandBuffer(d, encoder), nil
}

func (d *wgpuDevice) Submit(cmd CommandBuffer) error {
	c, ok := cmd.(*wgpuCommandBuffer)
	if !ok {
		return fmt.Errorf("%w: foreign command buffer", ErrInvalidDescriptor)
	}
	defer c.release()

	if c.pass != nil {
		c.endPass()
	}
	if c.err != nil {
		return c.err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(c.pushData) > 0 {
		d.queue.WriteBuffer(d.pushArena, 0, c.pushData)
	}

	commandBuffer, err := c.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command buffer: %w", err)
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, layout := range d.programs {
		if layout.pushGroup != nil {
			layout.pushGroup.Release()
		}
		layout.pipelineLayout.Release()
		for _, bgl := range layout.groupLayouts {
			bgl.Release()
		}
		layout.module.Release()
	}
	d.programs = nil

	if d.pushArena != nil {
		d.pushArena.Release()
		d.pushArena = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// padTo4 returns data padded with zeros to a multiple of four bytes, as WebGPU requires for buffer writes.
func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	padded := make([]byte, common.AlignUp(uint64(len(data)), 4))
	copy(padded, data)
	return padded
}
