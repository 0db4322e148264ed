package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// errNotOpen is returned when closing a window that was never opened.
var errNotOpen = errors.New("window is not open")

// glfwWindow holds the GLFW-specific window state. running may be cleared from any goroutine;
// destroyed is only touched on the main thread.
type glfwWindow struct {
	window    *glfw.Window
	running   atomic.Bool
	destroyed bool
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)

	gw := &glfwWindow{window: win}
	gw.running.Store(true)
	w.internalWindow = gw

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.running.Store(false)
			win.SetShouldClose(true)
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetMouseButtonCallback
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.onMouseButton != nil && action != glfw.Repeat {
			w.onMouseButton(common.MouseButton(button), action == glfw.Press)
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCursorPosCallback
	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if w.onMouseMove != nil {
			w.onMouseMove(xpos, ypos)
		}
	})

	// Framebuffer size, not window size: the surface needs pixel dimensions on high-DPI displays.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil || w.internalWindow.destroyed {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.internalWindow.window)
}

// platformSetCursorHidden switches between the normal and the disabled (captured) cursor mode.
//
// Reference: https://www.glfw.org/docs/latest/input_guide.html#cursor_mode
func platformSetCursorHidden(w *engineWindow, hidden bool) {
	if w.internalWindow == nil || w.internalWindow.destroyed {
		return
	}
	mode := glfw.CursorNormal
	if hidden {
		mode = glfw.CursorDisabled
	}
	w.internalWindow.window.SetInputMode(glfw.CursorMode, mode)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
func platformIsRunningCheck(w *engineWindow) bool {
	gw := w.internalWindow
	if gw == nil || gw.destroyed {
		return false
	}
	return gw.running.Load() && !gw.window.ShouldClose()
}

// platformCloseWindow asks the message loop to stop. glfwSetWindowShouldClose may be called from
// any thread.
func platformCloseWindow(w *engineWindow) error {
	gw := w.internalWindow
	if gw == nil {
		return errNotOpen
	}
	gw.running.Store(false)
	gw.window.SetShouldClose(true)
	return nil
}

// platformDestroyWindow destroys the GLFW window and terminates the GLFW library.
func platformDestroyWindow(w *engineWindow) {
	gw := w.internalWindow
	if gw == nil || gw.destroyed {
		return
	}
	gw.running.Store(false)
	gw.destroyed = true
	gw.window.Destroy()
	glfw.Terminate()
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
