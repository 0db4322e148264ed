// Package renderer draws a scene into a swapchain or offscreen image as a depth pre-pass, one
// shadow pass per cascade and a lighting pass.
package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/camera"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/light"
	"github.com/Carmen-Shannon/tsuki-go/engine/logger"
	"github.com/Carmen-Shannon/tsuki-go/engine/model"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer/material"
	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrFrameIndexOutOfRange is returned by Render for a frame index without per-frame resources.
var ErrFrameIndexOutOfRange = errors.New("frame index out of range")

const (
	// DefaultFramesInFlight is the number of per-frame uniform buffers and offscreen images.
	DefaultFramesInFlight = 3

	// ColorFormat is the format of offscreen scene images.
	ColorFormat = gpu.FormatB8G8R8A8Unorm

	// DepthFormat is the format of the scene depth buffer and the shadow map.
	DepthFormat = gpu.FormatD32Sfloat

	shadowDepthBias      = 1.25
	shadowDepthBiasSlope = 1.75
)

// Render pass labels.
const (
	ShadowPassLabel = "Shadow Cascade"
	ScenePassLabel  = "Scene"
)

// renderStage selects the pipeline state and bindings of one drawMeshes call.
type renderStage int

const (
	stageShadow renderStage = iota
	stageDepthPrePass
	stageLighting
)

// meshDraw is a drawable entity with its world matrix and the world bounds of its subtree.
type meshDraw struct {
	mesh   *scene.MeshComponent
	world  mgl32.Mat4
	bounds common.AABB
}

// collectDraws walks the hierarchy once from the roots, computing every world matrix and subtree
// bound, and returns the drawable entities in view order with the bounds of the whole scene.
func collectDraws(s *scene.Scene) ([]meshDraw, common.AABB) {
	worlds := make(map[scene.Entity]mgl32.Mat4, s.Len())
	subtrees := make(map[scene.Entity]common.AABB, s.Len())

	var visit func(e scene.Entity, parent mgl32.Mat4) common.AABB
	visit = func(e scene.Entity, parent mgl32.Mat4) common.AABB {
		world := parent
		if t := s.Transform(e); t != nil {
			world = parent.Mul4(t.Matrix())
		}
		worlds[e] = world

		bounds := common.NewAABB()
		if mc, ok := scene.GetComponent[*scene.MeshComponent](s, e); ok {
			bounds.Contain(mc.Bounds.Transform(world))
		}
		for _, c := range s.Children(e) {
			bounds.Contain(visit(c, world))
		}
		subtrees[e] = bounds
		return bounds
	}

	sceneBounds := common.NewAABB()
	for _, root := range s.RootEntities() {
		sceneBounds.Contain(visit(root, mgl32.Ident4()))
	}

	var draws []meshDraw
	for _, e := range scene.View[*scene.MeshComponent](s) {
		mc, _ := scene.GetComponent[*scene.MeshComponent](s, e)
		if mc == nil || mc.Mesh == nil || mc.Mesh.Buffer == nil {
			continue
		}
		draws = append(draws, meshDraw{mesh: mc, world: worlds[e], bounds: subtrees[e]})
	}
	return draws, sceneBounds
}

// sceneRenderer is the implementation of the SceneRenderer interface.
type sceneRenderer struct {
	mu  sync.Mutex
	log *zap.Logger

	device gpu.Device

	frames          int
	drawToSwapchain bool
	width, height   uint32
	images          []gpu.Image

	depth           gpu.Image
	persistentDepth bool

	shadowResolution uint32
	cascadeCount     int
	shadowMap        gpu.Image

	debugShowCascades bool
	freezeFrustum     bool
	frozenFrustum     common.AABB

	defaults  DefaultImages
	uniforms  []gpu.Buffer
	sceneData []GPUSceneData

	depthPrePass gpu.Pipeline
	lighting     gpu.Pipeline
	shadow       gpu.Pipeline

	geometrySampler gpu.Sampler
	shadowSampler   gpu.Sampler

	nullMaterial *material.Material
}

// SceneRenderer records the GPU work to draw a scene.
//
// Each frame renders the cascaded shadow map of the first directional light (when it casts
// shadows and a camera exists) and then one render pass with a depth pre-pass subpass and a lighting
// subpass that tests for equal depth. Without a camera the target is still cleared.
type SceneRenderer interface {
	// Render records one frame into cmd. The per-frame uniform buffer of frameIndex is rewritten.
	// Nothing is recorded when the frame has no target image, such as a headless device drawing to
	// the swapchain or an offscreen image that was never sized.
	//
	// Parameters:
	//   - cmd: the command buffer to record into
	//   - s: the scene to draw
	//   - frameIndex: the frame-in-flight index
	//
	// Returns:
	//   - error: ErrFrameIndexOutOfRange, or a device error from updating uniforms
	Render(cmd gpu.CommandBuffer, s *scene.Scene, frameIndex int) error

	// Image returns the offscreen image of a frame, or nil when drawing to the swapchain, when no
	// size was set, or when frameIndex is out of range.
	Image(frameIndex int) gpu.Image

	// SetDrawToSwapchain switches between the swapchain and offscreen images. Offscreen images are
	// created when a size is set and released when switching to the swapchain.
	//
	// Returns:
	//   - error: an image creation error
	SetDrawToSwapchain(drawToSwapchain bool) error

	// SetImageSize sets the offscreen image size. A changed size recreates every offscreen image and
	// the persistent depth image.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	//
	// Returns:
	//   - error: an image creation error
	SetImageSize(width, height uint32) error

	// SetShadowResolution sets the width and height of every cascade layer. The shadow map is
	// recreated on the next frame that casts shadows.
	SetShadowResolution(resolution uint32)

	// SetCascadeCount sets the number of shadow cascades, clamped to [1, light.MaxCascades].
	SetCascadeCount(count int)

	// SetDebugShowCascades tints fragments by the cascade they sample.
	SetDebugShowCascades(show bool)

	// SetFreezeFrustum keeps culling against the last camera frustum computed while unfrozen.
	SetFreezeFrustum(freeze bool)

	// SetPersistentDepth keeps the scene depth buffer contents after the frame for inspection.
	//
	// Returns:
	//   - error: a depth image creation error
	SetPersistentDepth(persistent bool) error

	// ShadowMap returns the current shadow map, or nil when the last frame cast no shadows.
	ShadowMap() gpu.Image

	// SceneData returns the uniform block last written for a frame.
	SceneData(frameIndex int) GPUSceneData

	// DefaultImages returns the placeholder images.
	DefaultImages() DefaultImages

	// NullMaterial returns the material drawn for submeshes without one.
	NullMaterial() *material.Material

	// Release destroys every resource the renderer created.
	Release()
}

var _ SceneRenderer = &sceneRenderer{}

// NewSceneRenderer creates a new SceneRenderer drawing through device, with the provided options
// applied. It creates the placeholder images, per-frame uniform buffers, the three pipelines, the
// samplers and the null material up front.
//
// Parameters:
//   - device: the device the renderer creates resources on
//   - options: a variadic list of SceneRendererBuilderOption functions to configure the renderer
//
// Returns:
//   - SceneRenderer: the renderer
//   - error: a resource creation error; everything created before it is released
func NewSceneRenderer(device gpu.Device, options ...SceneRendererBuilderOption) (SceneRenderer, error) {
	r := &sceneRenderer{
		log:              logger.Named("renderer"),
		device:           device,
		frames:           DefaultFramesInFlight,
		drawToSwapchain:  true,
		shadowResolution: light.ShadowMapResolution,
		cascadeCount:     light.MaxCascades,
		frozenFrustum:    common.NewAABB(),
	}
	for _, option := range options {
		option(r)
	}

	if err := r.init(); err != nil {
		r.Release()
		return nil, err
	}
	if !r.drawToSwapchain && r.width > 0 && r.height > 0 {
		if err := r.createImages(); err != nil {
			r.Release()
			return nil, err
		}
	}
	return r, nil
}

func (r *sceneRenderer) init() error {
	var err error
	if r.defaults, err = newDefaultImages(r.device); err != nil {
		return err
	}

	r.uniforms = make([]gpu.Buffer, r.frames)
	r.sceneData = make([]GPUSceneData, r.frames)
	for i := range r.uniforms {
		r.uniforms[i], err = r.device.CreateBuffer(gpu.BufferDesc{
			Label: fmt.Sprintf("Scene Uniforms %d", i),
			Size:  GPUSceneDataSize,
			Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to create scene uniform buffer: %w", err)
		}
	}

	depthStreams := []gpu.VertexStream{model.PositionStream, model.Texcoord0Stream}
	if r.depthPrePass, err = r.device.CreatePipeline(gpu.PipelineDesc{
		Label:        "Depth Pre-Pass",
		Program:      gpu.ProgramDepthPrePass,
		Streams:      depthStreams,
		DepthFormat:  DepthFormat,
		DepthWrite:   true,
		DepthCompare: gpu.CompareLess,
		Subpass:      0,
	}); err != nil {
		return fmt.Errorf("failed to create depth pre-pass pipeline: %w", err)
	}

	if r.lighting, err = r.device.CreatePipeline(gpu.PipelineDesc{
		Label:   "Lighting",
		Program: gpu.ProgramLighting,
		Streams: []gpu.VertexStream{
			model.PositionStream,
			model.Texcoord0Stream,
			model.NormalStream,
			model.TangentStream,
			model.BitangentStream,
		},
		ColorFormat:  ColorFormat,
		DepthFormat:  DepthFormat,
		DepthWrite:   false,
		DepthCompare: gpu.CompareEqual,
		Subpass:      1,
	}); err != nil {
		return fmt.Errorf("failed to create lighting pipeline: %w", err)
	}

	if r.shadow, err = r.device.CreatePipeline(gpu.PipelineDesc{
		Label:          "Shadow",
		Program:        gpu.ProgramShadow,
		Streams:        depthStreams,
		DepthFormat:    DepthFormat,
		DepthWrite:     true,
		DepthCompare:   gpu.CompareLess,
		DepthBias:      shadowDepthBias,
		DepthBiasSlope: shadowDepthBiasSlope,
		DepthClamp:     true,
	}); err != nil {
		return fmt.Errorf("failed to create shadow pipeline: %w", err)
	}

	if r.geometrySampler, err = r.device.CreateSampler(gpu.SamplerDesc{
		Label:         "Geometry Filter Clamp",
		MagFilter:     gpu.FilterLinear,
		MinFilter:     gpu.FilterLinear,
		MipmapMode:    gpu.MipmapModeLinear,
		AddressU:      gpu.AddressModeClampToEdge,
		AddressV:      gpu.AddressModeClampToEdge,
		AddressW:      gpu.AddressModeClampToEdge,
		MaxLod:        1000,
		MaxAnisotropy: r.device.MaxSamplerAnisotropy(),
	}); err != nil {
		return fmt.Errorf("failed to create geometry sampler: %w", err)
	}

	if r.shadowSampler, err = r.device.CreateSampler(gpu.SamplerDesc{
		Label:         "Shadow",
		MagFilter:     gpu.FilterNearest,
		MinFilter:     gpu.FilterNearest,
		MipmapMode:    gpu.MipmapModeNearest,
		AddressU:      gpu.AddressModeClampToEdge,
		AddressV:      gpu.AddressModeClampToEdge,
		AddressW:      gpu.AddressModeClampToEdge,
		MaxLod:        1,
		MaxAnisotropy: 1,
		Border:        gpu.BorderColorOpaqueWhite,
	}); err != nil {
		return fmt.Errorf("failed to create shadow sampler: %w", err)
	}

	r.nullMaterial = material.New(material.WithName("Null Material"))
	return nil
}

func (r *sceneRenderer) Render(cmd gpu.CommandBuffer, s *scene.Scene, frameIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frameIndex < 0 || frameIndex >= r.frames {
		return fmt.Errorf("frame %d of %d: %w", frameIndex, r.frames, ErrFrameIndexOutOfRange)
	}

	target := r.target(frameIndex)
	if target == nil {
		return nil
	}
	width, height := target.Desc().Width, target.Desc().Height

	camEntity, cam := s.MainCamera()
	sunEntity, sun := scene.First[*light.DirectionalLight](s)
	hasCamera := camEntity != scene.NullEntity && cam != nil
	hasSun := sunEntity != scene.NullEntity && sun != nil

	castShadows := hasSun && sun.CastShadows && hasCamera

	var draws []meshDraw
	sceneBounds := common.NewAABB()
	if hasCamera {
		draws, sceneBounds = collectDraws(s)
	}

	data := GPUSceneData{CascadeCount: int32(r.cascadeCount)}
	var frustum common.AABB
	if hasCamera {
		cam.SetViewport(width, height)
		world := s.GlobalTransform(camEntity)
		view := world.Inv()
		projection := cam.ProjectionMatrix()

		data.View = view
		data.Projection = projection
		data.ViewProjection = projection.Mul4(view)
		data.Position = world.Col(3).Vec3().Vec4(1)
		frustum = r.cullingFrustum(data.ViewProjection)
	}

	if hasSun {
		var rotation mgl32.Vec3
		if t := s.Transform(sunEntity); t != nil {
			rotation = t.Rotation
		}
		data.Light = GPUDirectionalLight{
			Direction:    light.DirectionFromRotation(rotation),
			ShadowAmount: sun.ShadowAmount,
			Radiance:     sun.Radiance,
			Intensity:    sun.Intensity,
		}
	}

	if hasCamera && hasSun {
		data.LightSize = sun.LightSize
		data.SoftShadows = sun.SoftShadows
		data.DebugShowCascades = r.debugShowCascades
		r.prepareCascades(&data, sceneBounds, cam, sun)
	}
	data.CastShadows = castShadows

	if err := r.updateShadowMap(castShadows); err != nil {
		return err
	}

	r.sceneData[frameIndex] = data
	if err := r.device.WriteBuffer(r.uniforms[frameIndex], 0, data.Marshal()); err != nil {
		return fmt.Errorf("failed to write scene uniforms: %w", err)
	}

	if castShadows {
		r.renderShadows(cmd, draws, frameIndex)
	}

	depth, err := r.depthImage(width, height)
	if err != nil {
		return err
	}
	r.renderScene(cmd, draws, frameIndex, target, depth, hasCamera, castShadows, frustum)
	return nil
}

// target returns the color image a frame draws into, or nil when there is none.
func (r *sceneRenderer) target(frameIndex int) gpu.Image {
	if !r.drawToSwapchain && r.width > 0 && r.height > 0 {
		if frameIndex >= len(r.images) {
			return nil
		}
		return r.images[frameIndex]
	}
	return r.device.SwapchainImage()
}

// offscreen reports whether frames draw into the renderer's own images.
func (r *sceneRenderer) offscreen() bool {
	return !r.drawToSwapchain && r.width > 0 && r.height > 0
}

// cullingFrustum returns the world-space box the depth and lighting stages cull against.
func (r *sceneRenderer) cullingFrustum(viewProjection mgl32.Mat4) common.AABB {
	if r.freezeFrustum && r.frozenFrustum.Valid() {
		return r.frozenFrustum
	}
	frustum := common.FrustumBounds(viewProjection)
	r.frozenFrustum = frustum
	return frustum
}

// prepareCascades fits the cascades to the camera frustum and writes their matrices and split depths.
func (r *sceneRenderer) prepareCascades(data *GPUSceneData, sceneBounds common.AABB, cam camera.Camera, sun *light.DirectionalLight) {
	cascades := light.FitCascades(light.CascadeInput{
		Count:                 r.cascadeCount,
		Lambda:                sun.CascadeSplitLambda,
		Near:                  cam.Near(),
		Far:                   cam.Far(),
		InverseViewProjection: data.ViewProjection.Inv(),
		LightDirection:        data.Light.Direction,
		SceneBounds:           sceneBounds,
	})
	for i, c := range cascades {
		data.LightMatrices[i] = c.ViewProjection
		data.CascadeSplits[i] = c.SplitDepth
	}
	data.CascadeCount = int32(len(cascades))
}

// updateShadowMap creates the shadow map when shadows are cast and it is missing or its size or
// layer count changed, and releases it when nothing casts shadows.
func (r *sceneRenderer) updateShadowMap(castShadows bool) error {
	if !castShadows {
		if r.shadowMap != nil {
			r.shadowMap.Release()
			r.shadowMap = nil
		}
		return nil
	}

	if r.shadowMap != nil {
		desc := r.shadowMap.Desc()
		if desc.Width == r.shadowResolution && desc.Layers == uint32(r.cascadeCount) {
			return nil
		}
		r.shadowMap.Release()
		r.shadowMap = nil
	}

	img, err := r.device.CreateImage(gpu.ImageDesc{
		Label:     "Shadow Map",
		Width:     r.shadowResolution,
		Height:    r.shadowResolution,
		Layers:    uint32(r.cascadeCount),
		MipLevels: 1,
		Format:    DepthFormat,
		Usage:     gpu.ImageUsageSampled | gpu.ImageUsageDepthAttachment,
		Kind:      gpu.ImageKind2DArray,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow map: %w", err)
	}
	r.shadowMap = img
	r.log.Debug("shadow map created",
		zap.Uint32("resolution", r.shadowResolution),
		zap.Int("cascades", r.cascadeCount),
	)
	return nil
}

// depthImage returns the scene depth buffer for the target size, recreating it on a size change.
func (r *sceneRenderer) depthImage(width, height uint32) (gpu.Image, error) {
	if r.depth != nil {
		desc := r.depth.Desc()
		if desc.Width == width && desc.Height == height {
			return r.depth, nil
		}
		r.depth.Release()
		r.depth = nil
	}

	img, err := r.device.CreateImage(gpu.ImageDesc{
		Label:     "Scene Depth",
		Width:     width,
		Height:    height,
		Layers:    1,
		MipLevels: 1,
		Format:    DepthFormat,
		Usage:     gpu.ImageUsageDepthAttachment | gpu.ImageUsageSampled,
		Kind:      gpu.ImageKind2D,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scene depth image: %w", err)
	}
	r.depth = img
	return img, nil
}

// renderShadows renders every cascade into its layer of the shadow map.
func (r *sceneRenderer) renderShadows(cmd gpu.CommandBuffer, draws []meshDraw, frameIndex int) {
	cmd.Barrier(gpu.ImageBarrier{
		Image: r.shadowMap,
		Old:   gpu.LayoutUndefined,
		New:   gpu.LayoutDepthAttachment,
	})

	cascade := make([]byte, 4)
	for i := 0; i < r.cascadeCount; i++ {
		cmd.BeginRenderPass(gpu.RenderPassDesc{
			Label: ShadowPassLabel,
			Depth: &gpu.DepthAttachment{
				Image: r.shadowMap,
				Layer: uint32(i),
				Clear: 1,
				Store: true,
			},
			Subpasses: 1,
		})
		cmd.BindPipeline(r.shadow)
		binary.LittleEndian.PutUint32(cascade, uint32(i))
		cmd.PushConstants(gpu.PushConstantCascadeOffset, cascade)
		r.drawMeshes(cmd, draws, frameIndex, stageShadow, common.AABB{})
		cmd.EndRenderPass()
	}

	cmd.Barrier(gpu.ImageBarrier{
		Image: r.shadowMap,
		Old:   gpu.LayoutDepthAttachment,
		New:   gpu.LayoutShaderReadOnly,
	})
}

// renderScene records the main render pass: a depth pre-pass subpass and a lighting subpass.
func (r *sceneRenderer) renderScene(cmd gpu.CommandBuffer, draws []meshDraw, frameIndex int, target, depth gpu.Image, hasCamera, castShadows bool, frustum common.AABB) {
	offscreen := r.offscreen()
	if offscreen {
		cmd.Barrier(gpu.ImageBarrier{
			Image: target,
			Old:   gpu.LayoutUndefined,
			New:   gpu.LayoutColorAttachment,
		})
	}
	if r.persistentDepth {
		cmd.Barrier(gpu.ImageBarrier{
			Image: depth,
			Old:   gpu.LayoutUndefined,
			New:   gpu.LayoutDepthAttachment,
		})
	}

	cmd.BeginRenderPass(gpu.RenderPassDesc{
		Label: ScenePassLabel,
		Color: &gpu.ColorAttachment{
			Image: target,
			Clear: [4]float32{0, 0, 0, 1},
		},
		Depth: &gpu.DepthAttachment{
			Image: depth,
			Clear: 1,
			Store: r.persistentDepth,
		},
		Subpasses: 2,
	})

	if hasCamera {
		cmd.BindPipeline(r.depthPrePass)
		r.drawMeshes(cmd, draws, frameIndex, stageDepthPrePass, frustum)
	}

	cmd.NextSubpass()

	if hasCamera {
		cmd.BindPipeline(r.lighting)
		if castShadows {
			cmd.BindTexture(gpu.SetScene, 1, r.shadowMap, r.shadowSampler)
		} else {
			cmd.BindTexture(gpu.SetScene, 1, r.defaults.WhiteCSM, r.shadowSampler)
		}
		r.drawMeshes(cmd, draws, frameIndex, stageLighting, frustum)
	}

	cmd.EndRenderPass()

	if offscreen {
		cmd.Barrier(gpu.ImageBarrier{
			Image: target,
			Old:   gpu.LayoutColorAttachment,
			New:   gpu.LayoutShaderReadOnly,
		})
	}
}

// drawMeshes draws the collected meshes. The depth pre-pass and lighting stages skip entities and
// submeshes whose world bounds miss the frustum; shadow casters outside the view still draw.
func (r *sceneRenderer) drawMeshes(cmd gpu.CommandBuffer, draws []meshDraw, frameIndex int, stage renderStage, frustum common.AABB) {
	cull := stage != stageShadow
	cmd.BindUniformBuffer(gpu.SetScene, 0, r.uniforms[frameIndex])

	modelBytes := make([]byte, 64)
	for _, d := range draws {
		if cull && !frustum.Intersects(d.bounds) {
			continue
		}

		mc, world := d.mesh, d.world
		common.PutMat4(modelBytes, world)
		cmd.PushConstants(gpu.PushConstantModelOffset, modelBytes)

		mesh := mc.Mesh
		offsets := []uint64{mesh.PositionOffset, mesh.Texcoord0Offset}
		if stage == stageLighting {
			offsets = append(offsets, mesh.NormalOffset, mesh.TangentOffset, mesh.BitangentOffset)
		}
		cmd.BindVertexBuffers(0, mesh.Buffer, offsets)
		cmd.BindIndexBuffer(mesh.Buffer, mesh.IndexOffset)

		for _, sm := range mesh.Submeshes {
			if cull && !frustum.Intersects(sm.Bounds.Transform(world)) {
				continue
			}

			mat := mc.MaterialFor(sm)
			if mat == nil {
				mat = r.nullMaterial
			}
			if err := mat.Update(r.device); err != nil {
				r.log.Error("failed to update material", zap.String("material", mat.Name), zap.Error(err))
				continue
			}

			if stage == stageShadow {
				cmd.SetCullMode(gpu.CullModeBack)
			} else {
				cmd.SetCullMode(mat.CullMode())
			}
			cmd.BindUniformBuffer(gpu.SetMaterial, 0, mat.Uniform())
			r.bindTexture(cmd, 1, mat.Albedo, r.defaults.White2D)
			if stage == stageLighting {
				r.bindTexture(cmd, 2, mat.Normal, r.defaults.Normal2D)
				r.bindTexture(cmd, 3, mat.PBR, r.defaults.White2D)
				r.bindTexture(cmd, 4, mat.Emissive, r.defaults.Black2D)
			}

			if sm.Indexed() {
				cmd.DrawIndexed(sm.IndexCount, 1, sm.FirstIndex, int32(sm.FirstVertex), 0)
			} else {
				cmd.Draw(sm.VertexCount, 1, sm.FirstVertex, 0)
			}
		}
	}
}

// bindTexture binds a material texture, falling back to a placeholder image when it has none and to
// the geometry sampler when it has no sampler of its own.
func (r *sceneRenderer) bindTexture(cmd gpu.CommandBuffer, binding uint32, tex *material.Texture, fallback gpu.Image) {
	img := fallback
	if img == nil {
		img = r.defaults.White2D
	}
	smp := r.geometrySampler
	if tex != nil {
		if tex.Image != nil {
			img = tex.Image
		}
		if tex.Sampler != nil {
			smp = tex.Sampler
		}
	}
	cmd.BindTexture(gpu.SetMaterial, binding, img, smp)
}

func (r *sceneRenderer) Image(frameIndex int) gpu.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	if frameIndex < 0 || frameIndex >= len(r.images) {
		return nil
	}
	return r.images[frameIndex]
}

func (r *sceneRenderer) SetDrawToSwapchain(drawToSwapchain bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.drawToSwapchain == drawToSwapchain {
		return nil
	}
	r.drawToSwapchain = drawToSwapchain
	r.releaseImages()
	if r.offscreen() {
		return r.createImages()
	}
	return nil
}

func (r *sceneRenderer) SetImageSize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == r.width && height == r.height {
		return nil
	}
	r.width, r.height = width, height
	r.releaseImages()
	if r.depth != nil {
		r.depth.Release()
		r.depth = nil
	}

	if r.offscreen() {
		if err := r.createImages(); err != nil {
			return err
		}
	}
	if r.persistentDepth && width > 0 && height > 0 {
		if _, err := r.depthImage(width, height); err != nil {
			return err
		}
	}
	return nil
}

// createImages creates one offscreen image per frame in flight. Caller holds r.mu.
func (r *sceneRenderer) createImages() error {
	r.images = make([]gpu.Image, r.frames)
	for i := range r.images {
		img, err := r.device.CreateImage(gpu.ImageDesc{
			Label:     fmt.Sprintf("Scene Image %d", i),
			Width:     r.width,
			Height:    r.height,
			Layers:    1,
			MipLevels: 1,
			Format:    ColorFormat,
			Usage:     gpu.ImageUsageColorAttachment | gpu.ImageUsageSampled,
			Kind:      gpu.ImageKind2D,
		})
		if err != nil {
			r.releaseImages()
			return fmt.Errorf("failed to create scene image %d: %w", i, err)
		}
		r.images[i] = img
	}
	return nil
}

// releaseImages releases the offscreen images. Caller holds r.mu.
func (r *sceneRenderer) releaseImages() {
	for _, img := range r.images {
		if img != nil {
			img.Release()
		}
	}
	r.images = nil
}

func (r *sceneRenderer) SetShadowResolution(resolution uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resolution > 0 {
		r.shadowResolution = resolution
	}
}

func (r *sceneRenderer) SetCascadeCount(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cascadeCount = min(max(count, 1), light.MaxCascades)
}

func (r *sceneRenderer) SetDebugShowCascades(show bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debugShowCascades = show
}

func (r *sceneRenderer) SetFreezeFrustum(freeze bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.freezeFrustum = freeze
}

func (r *sceneRenderer) SetPersistentDepth(persistent bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistentDepth = persistent
	if persistent && r.offscreen() {
		_, err := r.depthImage(r.width, r.height)
		return err
	}
	return nil
}

func (r *sceneRenderer) ShadowMap() gpu.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shadowMap
}

func (r *sceneRenderer) SceneData(frameIndex int) GPUSceneData {
	r.mu.Lock()
	defer r.mu.Unlock()
	if frameIndex < 0 || frameIndex >= len(r.sceneData) {
		return GPUSceneData{}
	}
	return r.sceneData[frameIndex]
}

func (r *sceneRenderer) DefaultImages() DefaultImages {
	return r.defaults
}

func (r *sceneRenderer) NullMaterial() *material.Material {
	return r.nullMaterial
}

func (r *sceneRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseImages()
	for _, img := range []*gpu.Image{&r.depth, &r.shadowMap} {
		if *img != nil {
			(*img).Release()
			*img = nil
		}
	}
	for _, buf := range r.uniforms {
		if buf != nil {
			buf.Release()
		}
	}
	r.uniforms = nil
	for _, p := range []*gpu.Pipeline{&r.depthPrePass, &r.lighting, &r.shadow} {
		if *p != nil {
			(*p).Release()
			*p = nil
		}
	}
	for _, smp := range []*gpu.Sampler{&r.geometrySampler, &r.shadowSampler} {
		if *smp != nil {
			(*smp).Release()
			*smp = nil
		}
	}
	if r.nullMaterial != nil {
		r.nullMaterial.Release()
	}
	r.defaults.release()
}
