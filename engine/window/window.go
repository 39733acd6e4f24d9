// Package window adapts the surface view to the game-facing callbacks. It
// measures the frame delta and forwards the device lifecycle.
package window

import (
	"context"

	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/surface"
)

type DeviceCreated func(device renderer.Device, factory renderer.ResourceFactory, swapchain renderer.Swapchain) error
type DeviceDisposed func()
type Resized func(width uint32, height uint32)
type Rendering func(deltaSeconds float64) error

// Callbacks run on the render goroutine. Nil entries are skipped.
type Callbacks struct {
	FnDeviceCreated  DeviceCreated
	FnDeviceDisposed DeviceDisposed
	FnResized        Resized
	FnRendering      Rendering
}

type Option func(*Window)

// WithClock replaces the high resolution clock used for frame deltas.
func WithClock(c *core.Clock) Option {
	return func(w *Window) { w.clock = c }
}

// WithEvents makes the window fire the device lifecycle on the registry.
func WithEvents(e *core.Events) Option {
	return func(w *Window) { w.events = e }
}

// Window is the application window. It owns a surface view and listens to it.
type Window struct {
	view      *surface.View
	callbacks Callbacks
	clock     *core.Clock
	events    *core.Events
	lastTime  float64
}

func New(cfg surface.Config, callbacks Callbacks, opts ...Option) (*Window, error) {
	w := &Window{callbacks: callbacks}
	for _, opt := range opts {
		opt(w)
	}
	if w.clock == nil {
		w.clock = core.NewClock()
	}

	cfg.Listener = w
	view, err := surface.New(cfg)
	if err != nil {
		return nil, err
	}
	w.view = view

	w.clock.Start()
	w.lastTime = 0
	return w, nil
}

// View returns the surface view the platform callbacks go to.
func (w *Window) View() *surface.View { return w.view }

// Run runs the render loop. See surface.View.Run.
func (w *Window) Run(ctx context.Context) error {
	return w.view.Run(ctx)
}

func (w *Window) DeviceCreated(device renderer.Device, swapchain renderer.Swapchain) error {
	if w.callbacks.FnDeviceCreated != nil {
		if err := w.callbacks.FnDeviceCreated(device, device.ResourceFactory(), swapchain); err != nil {
			return err
		}
	}

	var ctx core.EventContext
	ctx.Data.C[0] = w.view.DeviceID()
	ctx.Data.C[1] = device.Backend().String()
	w.fire(core.EventCodeDeviceCreated, ctx)

	w.Resized(swapchain.Width(), swapchain.Height())
	return nil
}

func (w *Window) DeviceDisposed() {
	if w.callbacks.FnDeviceDisposed != nil {
		w.callbacks.FnDeviceDisposed()
	}
	var ctx core.EventContext
	ctx.Data.C[0] = w.view.DeviceID()
	w.fire(core.EventCodeDeviceDisposed, ctx)
}

func (w *Window) Resized(width, height uint32) {
	if w.callbacks.FnResized != nil {
		w.callbacks.FnResized(width, height)
	}
	var ctx core.EventContext
	ctx.Data.U32[0] = width
	ctx.Data.U32[1] = height
	w.fire(core.EventCodeResized, ctx)
}

// Rendering passes the seconds elapsed since the previous frame, or since
// the window was created for the first frame.
func (w *Window) Rendering() error {
	w.clock.Update()
	currentTime := w.clock.Elapsed()
	delta := max(currentTime-w.lastTime, 0)
	w.lastTime = currentTime

	if w.callbacks.FnRendering == nil {
		return nil
	}
	return w.callbacks.FnRendering(delta)
}

func (w *Window) fire(code core.SystemEventCode, ctx core.EventContext) {
	if w.events != nil {
		w.events.Fire(code, w, ctx)
	}
}
