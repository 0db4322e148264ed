package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithSensitivity sets the degrees turned per pixel of mouse movement.
//
// Parameters:
//   - degreesPerPixel: the mouse sensitivity
//
// Returns:
//   - CameraControllerOption: a function that sets the sensitivity
func WithSensitivity(degreesPerPixel float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.sensitivity = degreesPerPixel
	}
}

// WithSpeed sets the movement speed in units per second.
//
// Parameters:
//   - speed: the movement speed
//
// Returns:
//   - CameraControllerOption: a function that sets the speed
func WithSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.speed = speed
	}
}

// WithPitchLimit sets the maximum absolute pitch in degrees.
func WithPitchLimit(degrees float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitchLimit = degrees
	}
}
