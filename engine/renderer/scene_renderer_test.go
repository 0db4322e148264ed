package renderer

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/camera"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu/gputest"
	"github.com/Carmen-Shannon/tsuki-go/engine/light"
	"github.com/Carmen-Shannon/tsuki-go/engine/model"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer/material"
	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScene struct {
	scene  *scene.Scene
	camera scene.Entity
	sun    scene.Entity
	plane  scene.Entity
	mesh   *model.Mesh
}

// newTestScene builds a camera at the origin looking down -Z, a sun and a ground plane in view.
func newTestScene(t *testing.T, device gpu.Device, castShadows bool) *testScene {
	t.Helper()
	plane, err := model.NewPlane(device)
	require.NoError(t, err)

	ts := &testScene{scene: scene.New(), mesh: plane}
	s := ts.scene

	ts.camera = s.CreateEntity("Camera")
	scene.AddComponent(s, ts.camera, camera.NewCamera(camera.WithFar(100)))

	ts.sun = s.CreateEntity("Sun")
	s.Transform(ts.sun).Rotation = mgl32.Vec3{85, 20, 0}
	scene.AddComponent(s, ts.sun, light.NewDirectionalLight(
		light.WithShadowAmount(0.85),
		light.WithCastShadows(castShadows),
	))

	ts.plane = ts.addPlane(mgl32.Vec3{0, -1, -5})
	return ts
}

func (ts *testScene) addPlane(at mgl32.Vec3) scene.Entity {
	e := ts.scene.CreateEntity("Ground")
	tr := ts.scene.Transform(e)
	tr.Translation = at
	tr.Scale = mgl32.Vec3{4, 1, 4}
	scene.AddComponent(ts.scene, e, &scene.MeshComponent{Mesh: ts.mesh.Retain(), Bounds: ts.mesh.Bounds})
	return e
}

func newTestRenderer(t *testing.T, device gpu.Device, options ...SceneRendererBuilderOption) SceneRenderer {
	t.Helper()
	r, err := NewSceneRenderer(device, options...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

// record renders one frame and submits it, returning the recorded commands.
func record(t *testing.T, device *gputest.Device, r SceneRenderer, s *scene.Scene, frame int) *gputest.CommandBuffer {
	t.Helper()
	cmd, err := device.BeginCommands()
	require.NoError(t, err)
	require.NoError(t, r.Render(cmd, s, frame))
	require.NoError(t, device.Submit(cmd))
	return device.LastSubmitted()
}

func commandsOf(cmd *gputest.CommandBuffer, op gputest.Op) []gputest.Command {
	var out []gputest.Command
	for _, c := range cmd.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// texturesIn returns the texture bindings recorded in the given subpass of the scene pass.
func texturesIn(cmd *gputest.CommandBuffer, subpass int) []gputest.Command {
	var out []gputest.Command
	inScene, current := false, 0
	for _, c := range cmd.Commands {
		switch c.Op {
		case gputest.OpBeginRenderPass:
			inScene, current = c.Pass.Label == ScenePassLabel, 0
		case gputest.OpNextSubpass:
			current = c.Subpass
		case gputest.OpBindTexture:
			if inScene && current == subpass {
				out = append(out, c)
			}
		}
	}
	return out
}

func samplerByLabel(device *gputest.Device, label string) *gputest.Sampler {
	for _, s := range device.Samplers {
		if s.Desc().Label == label {
			return s
		}
	}
	return nil
}

func bufferByLabel(device *gputest.Device, label string) *gputest.Buffer {
	for _, b := range device.Buffers {
		if b.Desc().Label == label {
			return b
		}
	}
	return nil
}

func labels(passes []gpu.RenderPassDesc) []string {
	out := make([]string, len(passes))
	for i, p := range passes {
		out[i] = p.Label
	}
	return out
}

func TestNewSceneRendererResources(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	r := newTestRenderer(t, device)

	prepass := device.PipelineFor(gpu.ProgramDepthPrePass)
	require.NotNil(t, prepass)
	assert.Equal(t, 0, prepass.Desc().Subpass)
	assert.True(t, prepass.Desc().DepthWrite)
	assert.Equal(t, gpu.CompareLess, prepass.Desc().DepthCompare)
	assert.Len(t, prepass.Desc().Streams, 2)

	lighting := device.PipelineFor(gpu.ProgramLighting)
	require.NotNil(t, lighting)
	assert.Equal(t, 1, lighting.Desc().Subpass)
	assert.False(t, lighting.Desc().DepthWrite)
	assert.Equal(t, gpu.CompareEqual, lighting.Desc().DepthCompare)
	assert.Len(t, lighting.Desc().Streams, 5)

	shadow := device.PipelineFor(gpu.ProgramShadow)
	require.NotNil(t, shadow)
	assert.True(t, shadow.Desc().DepthClamp)
	assert.Equal(t, float32(1.25), shadow.Desc().DepthBias)
	assert.Equal(t, float32(1.75), shadow.Desc().DepthBiasSlope)
	assert.Equal(t, gpu.FormatUndefined, shadow.Desc().ColorFormat)

	shadowSampler := samplerByLabel(device, "Shadow")
	require.NotNil(t, shadowSampler)
	assert.Equal(t, gpu.FilterNearest, shadowSampler.Desc().MagFilter)
	assert.Equal(t, gpu.BorderColorOpaqueWhite, shadowSampler.Desc().Border)
	assert.Equal(t, float32(1), shadowSampler.Desc().MaxLod)

	geometry := samplerByLabel(device, "Geometry Filter Clamp")
	require.NotNil(t, geometry)
	assert.Equal(t, float32(16), geometry.Desc().MaxAnisotropy)

	require.Len(t, device.Buffers, DefaultFramesInFlight)
	for _, b := range device.Buffers {
		assert.Equal(t, uint64(GPUSceneDataSize), b.Desc().Size)
	}

	csm := device.ImageByLabel("WhiteCSM")
	require.NotNil(t, csm)
	assert.Equal(t, uint32(light.MaxCascades), csm.Desc().Layers)
	assert.Equal(t, float32(1), common.Float32At(csm.Mips[0], 0))
	assert.Same(t, csm, r.DefaultImages().WhiteCSM)

	assert.Equal(t, "Null Material", r.NullMaterial().Name)
	assert.Nil(t, r.Image(0))
	assert.Nil(t, r.ShadowMap())

	r.Release()
	for _, img := range device.Images {
		assert.True(t, img.Released, img.Desc().Label)
	}
	for _, b := range device.Buffers {
		assert.True(t, b.Released, b.Desc().Label)
	}
	for _, p := range device.Pipelines {
		assert.True(t, p.Released, p.Desc().Label)
	}
}

func TestNewSceneRendererReleasesOnFailure(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	device.FailImages = map[string]bool{"WhiteCSM": true}

	r, err := NewSceneRenderer(device)
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
	assert.Nil(t, r)

	require.NotEmpty(t, device.Images)
	for _, img := range device.Images {
		assert.True(t, img.Released, img.Desc().Label)
	}
}

func TestRenderShadowsThenScene(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	r := newTestRenderer(t, device, WithCascadeCount(2), WithShadowResolution(256))

	cmd := record(t, device, r, ts.scene, 0)

	passes := cmd.Passes()
	assert.Equal(t, []string{ShadowPassLabel, ShadowPassLabel, ScenePassLabel}, labels(passes))
	for i, p := range passes[:2] {
		require.NotNil(t, p.Depth)
		assert.Equal(t, uint32(i), p.Depth.Layer)
		assert.Equal(t, float32(1), p.Depth.Clear)
		assert.True(t, p.Depth.Store)
		assert.Nil(t, p.Color)
	}

	shadowMap, ok := r.ShadowMap().(*gputest.Image)
	require.True(t, ok)
	assert.Equal(t, uint32(256), shadowMap.Desc().Width)
	assert.Equal(t, uint32(2), shadowMap.Desc().Layers)
	assert.Equal(t, DepthFormat, shadowMap.Desc().Format)
	assert.Equal(t, gpu.LayoutShaderReadOnly, shadowMap.Layout)

	barriers := commandsOf(cmd, gputest.OpBarrier)
	require.Len(t, barriers, 2)
	assert.Equal(t, gpu.LayoutUndefined, barriers[0].Barrier.Old)
	assert.Equal(t, gpu.LayoutDepthAttachment, barriers[0].Barrier.New)
	assert.Equal(t, gpu.LayoutDepthAttachment, barriers[1].Barrier.Old)
	assert.Equal(t, gpu.LayoutShaderReadOnly, barriers[1].Barrier.New)

	shadowDraws := cmd.DrawsIn(ShadowPassLabel)
	require.Len(t, shadowDraws, 2)
	for i, d := range shadowDraws {
		assert.Equal(t, gpu.ProgramShadow, d.Pipeline.Desc().Program)
		assert.Equal(t, uint32(i), binary.LittleEndian.Uint32(d.Push[gpu.PushConstantCascadeOffset:]))
		assert.Equal(t, gputest.OpDrawIndexed, d.Op)
		assert.Equal(t, uint32(6), d.Count)
	}

	scenePass := passes[2]
	assert.Equal(t, 2, scenePass.Subpasses)
	require.NotNil(t, scenePass.Color)
	assert.Same(t, device.Swapchain, scenePass.Color.Image)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, scenePass.Color.Clear)
	require.NotNil(t, scenePass.Depth)
	assert.False(t, scenePass.Depth.Store)
	assert.Equal(t, uint32(64), scenePass.Depth.Image.Desc().Width)

	sceneDraws := cmd.DrawsIn(ScenePassLabel)
	require.Len(t, sceneDraws, 2)
	assert.Equal(t, gpu.ProgramDepthPrePass, sceneDraws[0].Pipeline.Desc().Program)
	assert.Equal(t, 0, sceneDraws[0].Subpass)
	assert.Equal(t, gpu.ProgramLighting, sceneDraws[1].Pipeline.Desc().Program)
	assert.Equal(t, 1, sceneDraws[1].Subpass)

	var shadowBinding *gputest.Command
	for _, c := range texturesIn(cmd, 1) {
		if c.Set == gpu.SetScene && c.Binding == 1 {
			shadowBinding = &c
		}
	}
	require.NotNil(t, shadowBinding)
	assert.Same(t, shadowMap, shadowBinding.Image)
	assert.Same(t, samplerByLabel(device, "Shadow"), shadowBinding.Sampler)

	_, cam := ts.scene.MainCamera()
	vw, vh := cam.Viewport()
	assert.Equal(t, uint32(64), vw)
	assert.Equal(t, uint32(32), vh)
}

func TestRenderSceneData(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	ts.scene.Transform(ts.camera).Translation = mgl32.Vec3{1, 2, 3}
	r := newTestRenderer(t, device, WithCascadeCount(3))
	r.SetDebugShowCascades(true)

	record(t, device, r, ts.scene, 1)

	data := r.SceneData(1)
	assert.True(t, data.CastShadows)
	assert.True(t, data.SoftShadows)
	assert.True(t, data.DebugShowCascades)
	assert.Equal(t, int32(3), data.CascadeCount)
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 1}, data.Position)
	assert.Equal(t, float32(0.85), data.Light.ShadowAmount)
	assert.InDelta(t, 1, data.Light.Direction.Len(), 1e-5)
	assert.True(t, data.View.ApproxEqualThreshold(mgl32.Translate3D(-1, -2, -3), 1e-5))
	assert.True(t, data.ViewProjection.ApproxEqualThreshold(data.Projection.Mul4(data.View), 1e-5))
	assert.Greater(t, data.CascadeSplits[0], data.CascadeSplits[1])
	assert.Greater(t, data.CascadeSplits[1], data.CascadeSplits[2])
	assert.InDelta(t, -100, data.CascadeSplits[2], 1e-3)
	assert.Zero(t, data.CascadeSplits[3])
	assert.Equal(t, mgl32.Mat4{}, data.LightMatrices[3])

	uniform := bufferByLabel(device, "Scene Uniforms 1")
	require.NotNil(t, uniform)
	assert.Equal(t, data.Marshal(), uniform.Data)
	assert.Equal(t, GPUSceneData{}, r.SceneData(0))
	assert.Equal(t, GPUSceneData{}, r.SceneData(7))
}

func TestRenderWithoutShadows(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device)

	cmd := record(t, device, r, ts.scene, 0)

	assert.Equal(t, []string{ScenePassLabel}, labels(cmd.Passes()))
	assert.Nil(t, r.ShadowMap())
	assert.Nil(t, device.ImageByLabel("Shadow Map"))
	assert.Empty(t, commandsOf(cmd, gputest.OpBarrier))

	var bound *gputest.Image
	for _, c := range texturesIn(cmd, 1) {
		if c.Set == gpu.SetScene && c.Binding == 1 {
			bound = c.Image
		}
	}
	assert.Same(t, r.DefaultImages().WhiteCSM, bound)

	data := r.SceneData(0)
	assert.False(t, data.CastShadows)
	assert.Equal(t, float32(0.85), data.Light.ShadowAmount)
}

func TestRenderReleasesShadowMapWhenShadowsStop(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	r := newTestRenderer(t, device)

	record(t, device, r, ts.scene, 0)
	shadowMap := device.ImageByLabel("Shadow Map")
	require.NotNil(t, shadowMap)
	assert.Equal(t, uint32(light.ShadowMapResolution), shadowMap.Desc().Width)
	assert.Equal(t, uint32(light.MaxCascades), shadowMap.Desc().Layers)

	_, sun := scene.First[*light.DirectionalLight](ts.scene)
	sun.CastShadows = false
	record(t, device, r, ts.scene, 1)
	assert.True(t, shadowMap.Released)
	assert.Nil(t, r.ShadowMap())
}

func TestRenderRecreatesShadowMap(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	r := newTestRenderer(t, device, WithShadowResolution(1024))

	record(t, device, r, ts.scene, 0)
	first := device.ImageByLabel("Shadow Map")
	require.NotNil(t, first)

	record(t, device, r, ts.scene, 1)
	assert.Same(t, first, device.ImageByLabel("Shadow Map"))

	r.SetShadowResolution(512)
	r.SetCascadeCount(10)
	cmd := record(t, device, r, ts.scene, 2)

	second := device.ImageByLabel("Shadow Map")
	assert.NotSame(t, first, second)
	assert.True(t, first.Released)
	assert.Equal(t, uint32(512), second.Desc().Width)
	assert.Equal(t, uint32(light.MaxCascades), second.Desc().Layers)
	assert.Len(t, cmd.DrawsIn(ShadowPassLabel), light.MaxCascades)
}

func TestRenderWithoutCamera(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	ts.scene.DestroyEntity(ts.camera)
	r := newTestRenderer(t, device)

	cmd := record(t, device, r, ts.scene, 0)

	assert.Equal(t, []gputest.Op{
		gputest.OpBeginRenderPass,
		gputest.OpNextSubpass,
		gputest.OpEndRenderPass,
	}, cmd.Ops())
	assert.Nil(t, r.ShadowMap())

	data := r.SceneData(0)
	assert.False(t, data.CastShadows)
	assert.Equal(t, mgl32.Mat4{}, data.ViewProjection)
	assert.Equal(t, float32(0.85), data.Light.ShadowAmount)
	assert.Zero(t, data.LightSize)
}

func TestRenderWithoutLight(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	ts.scene.DestroyEntity(ts.sun)
	r := newTestRenderer(t, device)

	cmd := record(t, device, r, ts.scene, 0)

	assert.Equal(t, []string{ScenePassLabel}, labels(cmd.Passes()))
	assert.Len(t, cmd.DrawsIn(ScenePassLabel), 2)
	assert.Equal(t, GPUDirectionalLight{}, r.SceneData(0).Light)
}

func TestRenderCullsOutsideFrustum(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	ts.addPlane(mgl32.Vec3{0, -1, 50})
	r := newTestRenderer(t, device, WithCascadeCount(2))

	cmd := record(t, device, r, ts.scene, 0)

	assert.Len(t, cmd.DrawsIn(ScenePassLabel), 2)
	assert.Len(t, cmd.DrawsIn(ShadowPassLabel), 4)
}

func TestRenderFreezeFrustum(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device)

	record(t, device, r, ts.scene, 0)
	r.SetFreezeFrustum(true)

	// Turning around puts the plane behind the camera.
	ts.scene.Transform(ts.camera).Rotation = mgl32.Vec3{0, 180, 0}
	cmd := record(t, device, r, ts.scene, 1)
	assert.Len(t, cmd.DrawsIn(ScenePassLabel), 2)

	r.SetFreezeFrustum(false)
	cmd = record(t, device, r, ts.scene, 2)
	assert.Empty(t, cmd.DrawsIn(ScenePassLabel))
}

func TestCollectDrawsMatchesSceneHierarchy(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, true)
	s := ts.scene

	parent := s.CreateEntity("Parent")
	s.Transform(parent).Translation = mgl32.Vec3{3, 0, -8}
	s.Transform(parent).Rotation = mgl32.Vec3{0, 45, 0}
	child := s.CreateChildEntity(parent, "Child")
	s.Transform(child).Translation = mgl32.Vec3{0, 2, 0}
	s.Transform(child).ScaleBy(2)
	scene.AddComponent(s, child, &scene.MeshComponent{Mesh: ts.mesh.Retain(), Bounds: ts.mesh.Bounds})
	scene.AddComponent(s, s.CreateChildEntity(child, "Empty"), &scene.MeshComponent{Bounds: ts.mesh.Bounds})

	draws, bounds := collectDraws(s)
	require.Len(t, draws, 2, "components without a mesh are not drawn")
	assert.Equal(t, s.Bounds(), bounds)

	for i, e := range []scene.Entity{ts.plane, child} {
		mc, _ := scene.GetComponent[*scene.MeshComponent](s, e)
		assert.Same(t, mc, draws[i].mesh)
		assert.True(t, s.GlobalTransform(e).ApproxEqualThreshold(draws[i].world, 1e-5))
		want := s.GlobalBounds(e)
		for axis := range 3 {
			assert.InDelta(t, want.Min[axis], draws[i].bounds.Min[axis], 1e-4)
			assert.InDelta(t, want.Max[axis], draws[i].bounds.Max[axis], 1e-4)
		}
	}
}

func TestRenderMaterialBindings(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device)

	albedo, err := device.CreateImage(gpu.ImageDesc{
		Label: "Albedo", Width: 1, Height: 1, Layers: 1, MipLevels: 1,
		Format: gpu.FormatR8G8B8A8Srgb, Kind: gpu.ImageKind2D,
	})
	require.NoError(t, err)
	mat := material.New(
		material.WithName("Painted"),
		material.WithDoubleSided(true),
		material.WithTextures(&material.Texture{Image: albedo}, nil, nil, nil),
	)
	t.Cleanup(mat.Release)

	ts.mesh.Submeshes[0].MaterialIndex = 0
	mc, _ := scene.GetComponent[*scene.MeshComponent](ts.scene, ts.plane)
	mc.Materials = []*material.Material{mat}

	cmd := record(t, device, r, ts.scene, 0)

	geometry := samplerByLabel(device, "Geometry Filter Clamp")
	defaults := r.DefaultImages()
	want := map[uint32]gpu.Image{
		1: albedo,
		2: defaults.Normal2D,
		3: defaults.White2D,
		4: defaults.Black2D,
	}
	got := map[uint32]*gputest.Image{}
	for _, c := range texturesIn(cmd, 1) {
		if c.Set != gpu.SetMaterial {
			continue
		}
		got[c.Binding] = c.Image
		assert.Same(t, geometry, c.Sampler)
	}
	require.Len(t, got, len(want))
	for binding, img := range want {
		assert.Same(t, img, got[binding], "binding %d", binding)
	}

	// The depth pre-pass only samples albedo.
	prepass := texturesIn(cmd, 0)
	require.Len(t, prepass, 1)
	assert.Equal(t, uint32(1), prepass[0].Binding)

	for _, d := range cmd.Draws() {
		assert.Equal(t, gpu.CullModeNone, d.Cull)
	}
	require.NotNil(t, mat.Uniform())
}

func TestRenderNullMaterial(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device)

	cmd := record(t, device, r, ts.scene, 0)

	for _, d := range cmd.Draws() {
		assert.Equal(t, gpu.CullModeBack, d.Cull)
	}
	require.NotNil(t, r.NullMaterial().Uniform())
	for _, c := range commandsOf(cmd, gputest.OpBindUniform) {
		if c.Set == gpu.SetMaterial {
			assert.Same(t, r.NullMaterial().Uniform(), c.Buffer)
		}
	}

	defaults := r.DefaultImages()
	for _, c := range texturesIn(cmd, 1) {
		if c.Set == gpu.SetMaterial && c.Binding == 1 {
			assert.Same(t, defaults.White2D, c.Image)
		}
	}
}

func TestRenderPushesModelMatrix(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device)

	cmd := record(t, device, r, ts.scene, 0)

	want := make([]byte, 64)
	common.PutMat4(want, ts.scene.GlobalTransform(ts.plane))
	for _, d := range cmd.Draws() {
		assert.Equal(t, want, d.Push[gpu.PushConstantModelOffset:gpu.PushConstantModelOffset+64])
		assert.Equal(t, uint32(1), d.InstanceCount)
	}

	vertex := commandsOf(cmd, gputest.OpBindVertex)
	require.Len(t, vertex, 2)
	assert.Equal(t, []uint64{ts.mesh.PositionOffset, ts.mesh.Texcoord0Offset}, vertex[0].Offsets)
	assert.Equal(t, []uint64{
		ts.mesh.PositionOffset,
		ts.mesh.Texcoord0Offset,
		ts.mesh.NormalOffset,
		ts.mesh.TangentOffset,
		ts.mesh.BitangentOffset,
	}, vertex[1].Offsets)
}

func TestRenderFrameIndexOutOfRange(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device, WithFramesInFlight(2))

	for _, frame := range []int{-1, 2} {
		cmd, err := device.BeginCommands()
		require.NoError(t, err)
		err = r.Render(cmd, ts.scene, frame)
		assert.ErrorIs(t, err, ErrFrameIndexOutOfRange)
		assert.Empty(t, cmd.(*gputest.CommandBuffer).Commands)
	}
}

func TestRenderHeadlessSwapchainRecordsNothing(t *testing.T) {
	device := gputest.NewDevice(0, 0)
	ts := newTestScene(t, device, true)
	r := newTestRenderer(t, device)

	cmd := record(t, device, r, ts.scene, 0)
	assert.Empty(t, cmd.Commands)
}

func TestOffscreenImages(t *testing.T) {
	device := gputest.NewDevice(0, 0)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device, WithDrawToSwapchain(false))

	assert.Nil(t, r.Image(0))
	cmd := record(t, device, r, ts.scene, 0)
	assert.Empty(t, cmd.Commands)

	require.NoError(t, r.SetImageSize(128, 64))
	var first []gpu.Image
	for i := 0; i < DefaultFramesInFlight; i++ {
		img := r.Image(i)
		require.NotNil(t, img)
		assert.Equal(t, ColorFormat, img.Desc().Format)
		assert.Equal(t, uint32(128), img.Desc().Width)
		assert.Equal(t, uint32(64), img.Desc().Height)
		first = append(first, img)
	}
	assert.Nil(t, r.Image(DefaultFramesInFlight))

	cmd = record(t, device, r, ts.scene, 1)
	target := r.Image(1).(*gputest.Image)
	passes := cmd.Passes()
	require.Len(t, passes, 1)
	assert.Same(t, target, passes[0].Color.Image)
	assert.Equal(t, uint32(128), passes[0].Depth.Image.Desc().Width)

	barriers := commandsOf(cmd, gputest.OpBarrier)
	require.Len(t, barriers, 2)
	assert.Equal(t, gpu.LayoutColorAttachment, barriers[0].Barrier.New)
	assert.Equal(t, gpu.LayoutShaderReadOnly, barriers[1].Barrier.New)
	assert.Equal(t, gpu.LayoutShaderReadOnly, target.Layout)

	camEntity, cam := ts.scene.MainCamera()
	require.NotEqual(t, scene.NullEntity, camEntity)
	assert.InDelta(t, 2, cam.Aspect(), 1e-6)

	require.NoError(t, r.SetImageSize(128, 64))
	assert.Same(t, first[0], r.Image(0))

	require.NoError(t, r.SetImageSize(256, 128))
	for _, img := range first {
		assert.True(t, img.(*gputest.Image).Released)
	}
	assert.Equal(t, uint32(256), r.Image(0).Desc().Width)

	require.NoError(t, r.SetDrawToSwapchain(true))
	assert.Nil(t, r.Image(0))
}

func TestSetImageSizeFailure(t *testing.T) {
	device := gputest.NewDevice(0, 0)
	r := newTestRenderer(t, device, WithDrawToSwapchain(false))
	device.FailImages = map[string]bool{"Scene Image 1": true}

	err := r.SetImageSize(32, 32)
	require.ErrorIs(t, err, gpu.ErrDeviceLost)
	assert.Nil(t, r.Image(0))
	img := device.ImageByLabel("Scene Image 0")
	require.NotNil(t, img)
	assert.True(t, img.Released)
}

func TestPersistentDepth(t *testing.T) {
	device := gputest.NewDevice(64, 32)
	ts := newTestScene(t, device, false)
	r := newTestRenderer(t, device, WithPersistentDepth(true))

	cmd := record(t, device, r, ts.scene, 0)

	depth := device.ImageByLabel("Scene Depth")
	require.NotNil(t, depth)
	barriers := commandsOf(cmd, gputest.OpBarrier)
	require.Len(t, barriers, 1)
	assert.Same(t, depth, barriers[0].Barrier.Image)
	assert.Equal(t, gpu.LayoutDepthAttachment, barriers[0].Barrier.New)

	passes := cmd.Passes()
	require.Len(t, passes, 1)
	assert.True(t, passes[0].Depth.Store)
	assert.Same(t, depth, passes[0].Depth.Image)

	// The depth buffer is reused while the target size holds.
	record(t, device, r, ts.scene, 1)
	assert.Same(t, depth, device.ImageByLabel("Scene Depth"))
	assert.False(t, depth.Released)
}
