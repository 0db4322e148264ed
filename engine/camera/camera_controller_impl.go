package camera

import (
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraControllerImpl struct {
	sensitivity float32
	speed       float32
	pitchLimit  float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a fly controller turning 0.1 degrees per pixel, moving 5 units per
// second and limiting pitch to 89 degrees.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		sensitivity: 0.1,
		speed:       5,
		pitchLimit:  89,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) Look(rotation *mgl32.Vec3, dx, dy float32) {
	rotation[0] = mgl32.Clamp(rotation[0]-dy*cc.sensitivity, -cc.pitchLimit, cc.pitchLimit)
	rotation[1] -= dx * cc.sensitivity
	for rotation[1] < 0 {
		rotation[1] += 360
	}
	for rotation[1] >= 360 {
		rotation[1] -= 360
	}
}

func (cc *cameraControllerImpl) Move(translation *mgl32.Vec3, rotation mgl32.Vec3, forward, right, dt float32) {
	if forward == 0 && right == 0 {
		return
	}
	basis := common.EulerDegreesToQuat(rotation).Mat4()
	axisRight := basis.Col(0).Vec3().Normalize()
	axisForward := basis.Col(2).Vec3().Mul(-1).Normalize()

	step := cc.speed * dt
	*translation = translation.Add(axisForward.Mul(forward * step)).Add(axisRight.Mul(right * step))
}

func (cc *cameraControllerImpl) Sensitivity() float32 {
	return cc.sensitivity
}

func (cc *cameraControllerImpl) Speed() float32 {
	return cc.speed
}
