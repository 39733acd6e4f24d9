// Package surface binds a platform drawing surface to a graphics device and
// runs the render loop that follows the surface through its lifecycle.
package surface

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

type State uint32

const (
	StateNoSurface State = iota
	// StateSurfaceReady means a device and swapchain exist and no frame has
	// rendered on them yet.
	StateSurfaceReady
	StateDeviceActive
	StatePaused
	// StateDestroyed means the surface is gone and teardown has not run yet.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateNoSurface:
		return "no-surface"
	case StateSurfaceReady:
		return "surface-ready"
	case StateDeviceActive:
		return "device-active"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Listener receives the device lifecycle signals. Every method is called on
// the render goroutine.
type Listener interface {
	// DeviceCreated fires once per device lifetime, after the device and its
	// first swapchain exist.
	DeviceCreated(device renderer.Device, swapchain renderer.Swapchain) error
	// DeviceDisposed fires once per device lifetime, before the device is
	// disposed.
	DeviceDisposed()
	Resized(width, height uint32)
	Rendering() error
}

type Config struct {
	Backend  metadata.GraphicsBackend
	Options  metadata.GraphicsDeviceOptions
	Listener Listener
	// Factory defaults to renderer.DefaultFactory.
	Factory     renderer.DeviceFactory
	DepthFormat metadata.PixelFormat
	VSync       bool
}

// View owns the device and the swapchain bound to one platform surface.
//
// The platform callbacks (SurfaceCreated, SurfaceChanged, SurfaceDestroyed,
// Pause, Resume and Disable) may be called from any goroutine. They only
// post a message. All device work happens in Step, which Run calls in a loop
// on a dedicated goroutine.
type View struct {
	backend     metadata.GraphicsBackend
	binding     metadata.SurfaceBinding
	options     metadata.GraphicsDeviceOptions
	factory     renderer.DeviceFactory
	listener    Listener
	depthFormat metadata.PixelFormat
	vsync       bool

	mailbox *mailbox
	running atomic.Bool
	state   atomic.Uint32

	// Owned by the render goroutine.
	backlog        []message
	device         renderer.Device
	swapchain      renderer.Swapchain
	deviceID       string
	source         metadata.SwapchainSource
	width, height  uint32
	surfaceCreated bool
	destroyPending bool
	resizePending  bool
	paused         bool
	disabled       bool
	rendered       bool
}

// New validates the backend and returns a view with no surface. Backends
// other than Vulkan and OpenGL ES fail with core.ErrUnsupportedBackend.
func New(cfg Config) (*View, error) {
	binding := cfg.Backend.SurfaceBinding()
	if binding == metadata.SurfaceBindingUnsupported {
		return nil, errors.Wrapf(core.ErrUnsupportedBackend, "surface view cannot drive %s", cfg.Backend)
	}
	if cfg.Listener == nil {
		return nil, errors.New("surface view requires a listener")
	}
	factory := cfg.Factory
	if factory == nil {
		factory = renderer.DefaultFactory
	}
	return &View{
		backend:     cfg.Backend,
		binding:     binding,
		options:     cfg.Options,
		factory:     factory,
		listener:    cfg.Listener,
		depthFormat: cfg.DepthFormat,
		vsync:       cfg.VSync,
		mailbox:     newMailbox(),
	}, nil
}

func (v *View) Backend() metadata.GraphicsBackend { return v.backend }

// SurfaceCreated reports a new drawable surface of the given size.
func (v *View) SurfaceCreated(source metadata.SwapchainSource, width, height uint32) {
	v.mailbox.post(message{kind: msgCreated, source: source, width: width, height: height})
}

// SurfaceChanged reports a new surface size. The swapchain is resized on the
// next loop iteration.
func (v *View) SurfaceChanged(width, height uint32) {
	v.mailbox.post(message{kind: msgChanged, width: width, height: height})
}

// SurfaceDestroyed reports that the surface is gone.
func (v *View) SurfaceDestroyed() {
	v.mailbox.post(message{kind: msgDestroyed})
}

// Pause stops rendering. Pending surface changes are kept until Resume.
func (v *View) Pause() {
	v.mailbox.post(message{kind: msgPause})
}

func (v *View) Resume() {
	v.mailbox.post(message{kind: msgResume})
}

// Disable stops the render loop. Run returns nil after releasing the device.
func (v *View) Disable() {
	v.mailbox.post(message{kind: msgDisable})
}

// State returns the lifecycle state as of the last loop iteration.
func (v *View) State() State {
	return State(v.state.Load())
}

// Device returns the current device. It must only be called from the render
// goroutine, or while the loop is not running.
func (v *View) Device() renderer.Device { return v.device }

// Swapchain returns the current swapchain, with the same restriction as Device.
func (v *View) Swapchain() renderer.Swapchain { return v.swapchain }

// Size returns the last reported surface size, with the same restriction as
// Device.
func (v *View) Size() (uint32, uint32) { return v.width, v.height }

// Run locks the calling goroutine to its OS thread and runs the render loop
// until ctx is done, Disable is called or an iteration fails. The device is
// released before Run returns. Run may only be called once.
func (v *View) Run(ctx context.Context) error {
	if !v.running.CompareAndSwap(false, true) {
		return core.ErrAlreadyRunning
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer v.shutdown()

	core.LogDebug("render loop started (%s, %s)", v.backend, v.binding)
	for {
		select {
		case <-ctx.Done():
			core.LogDebug("render loop cancelled")
			return nil
		default:
		}

		idle, err := v.step()
		if err != nil {
			return err
		}
		if v.disabled {
			core.LogDebug("render loop disabled")
			return nil
		}
		if idle {
			select {
			case <-ctx.Done():
				core.LogDebug("render loop cancelled")
				return nil
			case <-v.mailbox.wake:
			}
		}
	}
}

// Step runs one loop iteration on the calling goroutine. It must not be used
// together with Run.
func (v *View) Step() error {
	_, err := v.step()
	return err
}

func (v *View) step() (idle bool, err error) {
	defer v.publishState()

	v.backlog = v.mailbox.drain(v.backlog)
	if err := v.apply(); err != nil {
		return false, err
	}

	if v.disabled || v.paused || !v.surfaceCreated {
		return true, nil
	}

	if v.destroyPending {
		v.teardown()
		return false, nil
	}

	if v.resizePending {
		v.resizePending = false
		if err := v.swapchain.Resize(v.width, v.height); err != nil {
			return false, errors.Wrapf(err, "resizing swapchain to %dx%d", v.width, v.height)
		}
		v.listener.Resized(v.width, v.height)
	}

	if v.device != nil {
		if err := v.listener.Rendering(); err != nil {
			core.LogError("render callback failed: %v", err)
			return false, err
		}
		v.rendered = true
	}
	return false, nil
}

// apply handles queued messages in order. A created message that would
// first have to tear down the previous surface waits while the view is
// paused; pause, resume and disable messages queued behind it still apply.
func (v *View) apply() error {
	for len(v.backlog) > 0 {
		msg := v.backlog[0]

		if msg.kind == msgCreated && v.paused && v.destroyPending {
			rest := []message{msg}
			for _, m := range v.backlog[1:] {
				switch m.kind {
				case msgPause, msgResume, msgDisable:
					v.handle(m)
				default:
					rest = append(rest, m)
				}
			}
			v.backlog = rest
			if v.paused || v.disabled {
				return nil
			}
			continue
		}

		v.backlog = v.backlog[1:]
		if err := v.handle(msg); err != nil {
			return err
		}
	}
	v.backlog = nil
	return nil
}

func (v *View) handle(msg message) error {
	switch msg.kind {
	case msgCreated:
		if v.destroyPending {
			v.teardown()
		}
		v.source = msg.source
		v.width, v.height = msg.width, msg.height
		return v.createSurface()
	case msgChanged:
		v.width, v.height = msg.width, msg.height
		v.resizePending = true
	case msgDestroyed:
		if v.surfaceCreated {
			v.destroyPending = true
		}
	case msgPause:
		v.paused = true
	case msgResume:
		v.paused = false
	case msgDisable:
		v.disabled = true
	}
	return nil
}

func (v *View) createSurface() error {
	desc := metadata.SwapchainDescription{
		Source:              v.source,
		Width:               v.width,
		Height:              v.height,
		DepthFormat:         v.depthFormat,
		SyncToVerticalBlank: v.vsync,
	}

	deviceCreated := false
	switch v.binding {
	case metadata.SwapchainRebindable:
		if v.device == nil {
			device, err := v.factory.CreateDevice(v.backend, v.options, nil)
			if err != nil {
				return errors.Wrapf(err, "creating %s device", v.backend)
			}
			v.device = device
			deviceCreated = true
		}
		if v.swapchain == nil {
			sc, err := v.device.ResourceFactory().CreateSwapchain(desc)
			if err != nil {
				if deviceCreated {
					v.device.Dispose()
					v.device = nil
				}
				return errors.Wrapf(err, "creating %dx%d swapchain", v.width, v.height)
			}
			v.swapchain = sc
		}
	case metadata.DeviceBoundToSurface:
		if v.device == nil {
			device, err := v.factory.CreateDevice(v.backend, v.options, &desc)
			if err != nil {
				return errors.Wrapf(err, "creating %s device", v.backend)
			}
			if device.MainSwapchain() == nil {
				device.Dispose()
				return errors.Errorf("%s device has no main swapchain", v.backend)
			}
			v.device = device
			v.swapchain = device.MainSwapchain()
			deviceCreated = true
		}
	}

	v.surfaceCreated = true
	v.rendered = false
	// A size change queued before the surface existed is already applied.
	if v.swapchain.Width() == v.width && v.swapchain.Height() == v.height {
		v.resizePending = false
	}
	if !deviceCreated {
		core.LogDebug("swapchain rebound to new surface (%dx%d) on device %s", v.width, v.height, v.deviceID)
		return nil
	}

	v.deviceID = core.NewLifetimeID()
	core.LogInfo("%s device %s created (%dx%d)", v.backend, v.deviceID, v.width, v.height)
	if err := v.listener.DeviceCreated(v.device, v.swapchain); err != nil {
		return errors.Wrap(err, "device created callback")
	}
	return nil
}

// teardown releases what the lost surface invalidated: the swapchain for
// rebindable backends, the whole device otherwise.
func (v *View) teardown() {
	switch v.binding {
	case metadata.SwapchainRebindable:
		if v.swapchain != nil {
			v.device.WaitForIdle()
			v.swapchain.Dispose()
			v.swapchain = nil
			core.LogDebug("swapchain disposed, device %s kept", v.deviceID)
		}
	case metadata.DeviceBoundToSurface:
		v.disposeDevice()
	}
	v.surfaceCreated = false
	v.destroyPending = false
	v.resizePending = false
}

func (v *View) disposeDevice() {
	if v.device == nil {
		return
	}
	v.device.WaitForIdle()
	v.listener.DeviceDisposed()
	if v.swapchain != nil && v.binding == metadata.SwapchainRebindable {
		v.swapchain.Dispose()
	}
	v.device.Dispose()
	core.LogInfo("%s device %s disposed", v.backend, v.deviceID)
	v.device = nil
	v.swapchain = nil
	v.deviceID = ""
}

func (v *View) shutdown() {
	v.disposeDevice()
	v.surfaceCreated = false
	v.destroyPending = false
	v.resizePending = false
	v.publishState()
}

// DeviceID returns the lifetime identifier of the current device, or "".
// Same restriction as Device.
func (v *View) DeviceID() string { return v.deviceID }

func (v *View) publishState() {
	var s State
	switch {
	case v.paused && v.surfaceCreated:
		s = StatePaused
	case v.destroyPending:
		s = StateDestroyed
	case !v.surfaceCreated:
		s = StateNoSurface
	case v.rendered:
		s = StateDeviceActive
	default:
		s = StateSurfaceReady
	}
	v.state.Store(uint32(s))
}
