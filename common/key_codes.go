package common

// Key codes delivered by the window's key callbacks. They match GLFW key codes, which use ASCII
// values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW = 87
	KeyA = 65
	KeyS = 83
	KeyD = 68
	KeyE = 69
	KeyQ = 81

	KeyC = 67 // toggle cascade tinting
	KeyF = 70 // toggle frustum freeze
	KeyP = 80 // toggle profiler

	KeyEsc = 256
	KeyF5  = 294 // reload every loaded asset

	KeyLeftShift = 340
)

// MouseButton identifies a mouse button in the window's button callback, matching GLFW.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)
