package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraDefaults(t *testing.T) {
	c := NewCamera(WithFar(500))
	assert.Equal(t, float32(45), c.FovDegrees())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(500), c.Far())
	assert.Equal(t, float32(1), c.Aspect())
}

func TestSetViewportUpdatesProjection(t *testing.T) {
	c := NewCamera()
	square := c.ProjectionMatrix()

	c.SetViewport(1600, 800)
	assert.InDelta(t, 2, c.Aspect(), 1e-6)
	wide := c.ProjectionMatrix()
	assert.InDelta(t, square[0]/2, wide[0], 1e-6)
	assert.Equal(t, square[5], wide[5])

	c.SetViewport(0, 10)
	w, h := c.Viewport()
	assert.Equal(t, uint32(1600), w)
	assert.Equal(t, uint32(800), h)
}

func TestLookClampsAndWraps(t *testing.T) {
	cc := NewCameraController()
	rot := mgl32.Vec3{0, 5, 0}

	cc.Look(&rot, 100, -2000)
	assert.Equal(t, float32(89), rot[0])
	assert.InDelta(t, 355, rot[1], 1e-4)

	cc.Look(&rot, -60, 4000)
	assert.Equal(t, float32(-89), rot[0])
	assert.InDelta(t, 1, rot[1], 1e-4)
}

func TestMoveAlongLocalAxes(t *testing.T) {
	cc := NewCameraController(WithSpeed(2))

	pos := mgl32.Vec3{}
	cc.Move(&pos, mgl32.Vec3{}, 1, 0, 0.5)
	assert.InDelta(t, -1, pos[2], 1e-5)

	// Yaw 270 looks down +X.
	pos = mgl32.Vec3{-5, 1.5, 0}
	cc.Move(&pos, mgl32.Vec3{0, 270, 0}, 1, 0, 1)
	assert.InDelta(t, -3, pos[0], 1e-4)
	assert.InDelta(t, 0, pos[2], 1e-4)

	cc.Move(&pos, mgl32.Vec3{}, 0, 1, 1)
	assert.InDelta(t, -1, pos[0], 1e-4)
}
