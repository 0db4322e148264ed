package gpu

// WGPUDeviceOption is a functional option applied to a WebGPU device during construction via NewWGPUDevice.
type WGPUDeviceOption func(*wgpuDevice)

// WithVSync selects FIFO presentation when true and immediate presentation otherwise.
//
// Parameters:
//   - vsync: true to wait for vertical blank before presenting
//
// Returns:
//   - WGPUDeviceOption: a function that applies the present mode option to a device
func WithVSync(vsync bool) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.vsync = vsync
	}
}

// WithForceFallbackAdapter forces WebGPU to use a CPU/software adapter instead of hardware acceleration.
// This requires a software Vulkan ICD such as lavapipe or SwiftShader.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - WGPUDeviceOption: a function that applies the fallback adapter option to a device
func WithForceFallbackAdapter(force bool) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithPushArenaSize sets the number of bytes reserved per command buffer for per-draw constants.
// Each draw consumes one 256 byte slot.
//
// Parameters:
//   - size: the arena size in bytes
//
// Returns:
//   - WGPUDeviceOption: a function that applies the arena size option to a device
func WithPushArenaSize(size uint64) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.pushArenaSize = size
	}
}
