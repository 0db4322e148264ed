package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fovDegrees float32
	near       float32
	far        float32

	width  uint32
	height uint32

	projection mgl32.Mat4
}

// Camera defines the interface for a perspective camera component.
// The camera owns only its lens: field of view, clip planes and viewport. Its placement comes from
// the Transform of the entity it is attached to, and the view matrix is the inverse of that
// entity's world transform.
type Camera interface {
	// FovDegrees returns the vertical field of view in degrees.
	//
	// Returns:
	//   - float32: field of view in degrees
	FovDegrees() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Aspect returns the viewport aspect ratio (width / height), or 1 when no viewport is set.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Viewport returns the size the projection is computed for.
	//
	// Returns:
	//   - width, height: the viewport size in pixels
	Viewport() (width, height uint32)

	// ProjectionMatrix returns the perspective projection in OpenGL clip conventions
	// (right-handed, depth in [-1, 1]).
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// SetPerspective sets the field of view and clip planes and recomputes the projection.
	//
	// Parameters:
	//   - fovDegrees: vertical field of view in degrees
	//   - near: near plane distance, greater than zero
	//   - far: far plane distance, greater than near
	SetPerspective(fovDegrees, near, far float32)

	// SetViewport sets the target size and recomputes the projection. A zero size is ignored.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	SetViewport(width, height uint32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new perspective camera. The defaults are a 45 degree field of view,
// clip planes at 0.1 and 1000 and a square viewport.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		fovDegrees: 45,
		near:       0.1,
		far:        1000,
	}
	for _, option := range options {
		option(c)
	}
	c.updateProjection()
	return c
}

func (c *cameraImpl) FovDegrees() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fovDegrees
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect()
}

func (c *cameraImpl) Viewport() (uint32, uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) SetPerspective(fovDegrees, near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fovDegrees = fovDegrees
	c.near = near
	c.far = far
	c.updateProjection()
}

func (c *cameraImpl) SetViewport(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.width == width && c.height == height {
		return
	}
	c.width = width
	c.height = height
	c.updateProjection()
}

// aspect must be called with the mutex held.
func (c *cameraImpl) aspect() float32 {
	if c.width == 0 || c.height == 0 {
		return 1
	}
	return float32(c.width) / float32(c.height)
}

// updateProjection must be called with the mutex held.
func (c *cameraImpl) updateProjection() {
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.fovDegrees), c.aspect(), c.near, c.far)
}
