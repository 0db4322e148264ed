package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController defines a first-person fly controller. It does not own any state of the camera
// entity; it edits the translation and Euler rotation (degrees) of the entity's transform in place.
type CameraController interface {
	// Look turns the camera by a mouse delta. Pitch is clamped to the configured limit and yaw is
	// wrapped into [0, 360).
	//
	// Parameters:
	//   - rotation: the Euler rotation in degrees to update
	//   - dx, dy: mouse movement in pixels since the last call
	Look(rotation *mgl32.Vec3, dx, dy float32)

	// Move translates the camera along its local axes.
	//
	// Parameters:
	//   - translation: the position to update
	//   - rotation: the current Euler rotation in degrees
	//   - forward: +1 forward, -1 backward, 0 none
	//   - right: +1 right, -1 left, 0 none
	//   - dt: elapsed time in seconds
	Move(translation *mgl32.Vec3, rotation mgl32.Vec3, forward, right, dt float32)

	// Sensitivity returns the degrees turned per pixel of mouse movement.
	//
	// Returns:
	//   - float32: the mouse sensitivity
	Sensitivity() float32

	// Speed returns the movement speed in units per second.
	//
	// Returns:
	//   - float32: the movement speed
	Speed() float32
}
