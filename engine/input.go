package engine

import (
	"github.com/Carmen-Shannon/tsuki-go/common"
	"go.uber.org/zap"
)

// inputState is the keyboard and mouse state the tick loop reads to move the camera.
type inputState struct {
	held map[uint32]bool

	looking  bool
	lastX    float64
	lastY    float64
	hasMouse bool

	showCascades bool
	freeze       bool
}

func newInputState() inputState {
	return inputState{held: make(map[uint32]bool)}
}

// keyDown handles a key press or repeat from the window.
func (e *engine) keyDown(keyCode uint32) {
	e.mu.Lock()
	repeat := e.input.held[keyCode]
	e.input.held[keyCode] = true
	e.mu.Unlock()

	if repeat {
		return
	}

	switch keyCode {
	case common.KeyC:
		e.mu.Lock()
		e.input.showCascades = !e.input.showCascades
		show := e.input.showCascades
		e.mu.Unlock()
		e.renderer.SetDebugShowCascades(show)
		e.log.Info("cascade tint", zap.Bool("enabled", show))
	case common.KeyF:
		e.mu.Lock()
		e.input.freeze = !e.input.freeze
		freeze := e.input.freeze
		e.mu.Unlock()
		e.renderer.SetFreezeFrustum(freeze)
		e.log.Info("frustum freeze", zap.Bool("enabled", freeze))
	case common.KeyP:
		if e.profilingEnabled.Load() {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	case common.KeyF5:
		e.ReloadAssets()
	}
}

// keyUp handles a key release from the window.
func (e *engine) keyUp(keyCode uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.input.held, keyCode)
}

// mouseButton enters mouse look while the right button is held.
func (e *engine) mouseButton(button common.MouseButton, pressed bool) {
	if button != common.MouseButtonRight {
		return
	}
	e.mu.Lock()
	e.input.looking = pressed
	e.input.hasMouse = false
	e.mu.Unlock()

	if e.window != nil {
		e.window.SetCursorHidden(pressed)
	}
}

// mouseMove turns the main camera by the cursor delta while looking.
func (e *engine) mouseMove(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dx, dy := x-e.input.lastX, y-e.input.lastY
	first := !e.input.hasMouse
	e.input.lastX, e.input.lastY, e.input.hasMouse = x, y, true
	if !e.input.looking || first {
		return
	}

	cam, c := e.scene.MainCamera()
	if c == nil {
		return
	}
	if t := e.scene.Transform(cam); t != nil {
		e.controller.Look(&t.Rotation, float32(dx), float32(dy))
	}
}

// moveCamera flies the main camera along its view axes for the held movement keys.
// The caller holds mu.
func (e *engine) moveCamera(dt float32) {
	var forward, right float32
	if e.input.held[common.KeyW] {
		forward++
	}
	if e.input.held[common.KeyS] {
		forward--
	}
	if e.input.held[common.KeyD] {
		right++
	}
	if e.input.held[common.KeyA] {
		right--
	}
	if forward == 0 && right == 0 {
		return
	}

	cam, c := e.scene.MainCamera()
	if c == nil {
		return
	}
	if t := e.scene.Transform(cam); t != nil {
		e.controller.Move(&t.Translation, t.Rotation, forward, right, dt)
	}
}

