package renderer

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// DeviceFactory creates devices. A nil swapchain description creates a
// device without a main swapchain, which only swapchain-rebindable backends
// support.
type DeviceFactory interface {
	CreateDevice(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions, swapchain *metadata.SwapchainDescription) (Device, error)
}

// Prober is implemented by factories that can check a backend before a
// device is created.
type Prober interface {
	Probe(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions) error
}

// DriverFunc creates a device for a registered backend.
type DriverFunc func(options metadata.GraphicsDeviceOptions, swapchain *metadata.SwapchainDescription) (Device, error)

// ProbeFunc checks that a backend can run on this machine without creating
// a device.
type ProbeFunc func(options metadata.GraphicsDeviceOptions) error

var (
	driversMu sync.RWMutex
	drivers   = map[metadata.GraphicsBackend]DriverFunc{}
	probes    = map[metadata.GraphicsBackend]ProbeFunc{}
)

// Register makes a backend driver available to the default factory. Backend
// packages call it from init.
func Register(backend metadata.GraphicsBackend, fn DriverFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[backend] = fn
}

// RegisterProbe sets the probe Probe runs for backend.
func RegisterProbe(backend metadata.GraphicsBackend, fn ProbeFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	probes[backend] = fn
}

// Probe reports why backend cannot be used, or nil. Backends registered
// without a probe are assumed to work.
func Probe(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions) error {
	if !IsBackendSupported(backend) {
		return errors.Wrapf(core.ErrNoDriver, "%s", backend)
	}
	driversMu.RLock()
	fn := probes[backend]
	driversMu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(options)
}

// IsBackendSupported reports whether a driver is registered for backend and
// the backend can drive a surface.
func IsBackendSupported(backend metadata.GraphicsBackend) bool {
	if backend.SurfaceBinding() == metadata.SurfaceBindingUnsupported {
		return false
	}
	driversMu.RLock()
	defer driversMu.RUnlock()
	_, ok := drivers[backend]
	return ok
}

type defaultFactory struct{}

// DefaultFactory creates devices through the registered drivers.
var DefaultFactory DeviceFactory = defaultFactory{}

func (defaultFactory) Probe(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions) error {
	return Probe(backend, options)
}

func (defaultFactory) CreateDevice(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions, swapchain *metadata.SwapchainDescription) (Device, error) {
	if backend.SurfaceBinding() == metadata.SurfaceBindingUnsupported {
		return nil, errors.Wrapf(core.ErrUnsupportedBackend, "%s", backend)
	}
	driversMu.RLock()
	fn, ok := drivers[backend]
	driversMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(core.ErrNoDriver, "%s", backend)
	}
	if swapchain == nil && backend.SurfaceBinding() == metadata.DeviceBoundToSurface {
		return nil, errors.Wrapf(core.ErrSurfaceRequired, "%s device", backend)
	}
	return fn(options, swapchain)
}
