package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/tsuki-go/engine/camera"
	"github.com/Carmen-Shannon/tsuki-go/engine/light"
	"github.com/Carmen-Shannon/tsuki-go/engine/model"
	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Default scene layout.
const (
	defaultCameraFar    = 500
	defaultShadowAmount = 0.85
	defaultGroundScale  = 10
)

var (
	defaultCameraTranslation = mgl32.Vec3{-5, 1.5, 0}
	defaultCameraRotation    = mgl32.Vec3{0, 270, 0}
	defaultSunRotation       = mgl32.Vec3{85, 20, 0}
	defaultGroundTranslation = mgl32.Vec3{0, -2, 0}
)

func (e *engine) SetupDefaultScene() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.scene

	cam := s.CreateEntity("Camera")
	scene.AddComponent(s, cam, camera.NewCamera(camera.WithFar(defaultCameraFar)))
	t := s.Transform(cam)
	t.Translation = defaultCameraTranslation
	t.Rotation = defaultCameraRotation

	sun := s.CreateEntity("Sun")
	scene.AddComponent(s, sun, light.NewDirectionalLight(
		light.WithCastShadows(true),
		light.WithSoftShadows(e.cfg.Shadows.SoftShadows),
		light.WithShadowAmount(defaultShadowAmount),
		light.WithCascadeSplitLambda(e.cfg.Shadows.SplitLambda),
	))
	s.Transform(sun).Rotation = defaultSunRotation

	if !e.cfg.Assets.Ground {
		return nil
	}

	plane, err := model.NewPlane(e.device)
	if err != nil {
		return fmt.Errorf("failed to create ground plane: %w", err)
	}
	ground := s.CreateEntity("Ground")
	scene.AddComponent(s, ground, &scene.MeshComponent{Mesh: plane, Bounds: plane.Bounds})
	gt := s.Transform(ground)
	gt.Translation = defaultGroundTranslation
	gt.ScaleBy(defaultGroundScale)
	return nil
}
