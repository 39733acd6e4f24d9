package engine

import (
	"github.com/spaghettifunk/helloquad/engine/renderer"
)

// Game is the application the engine drives. Every callback except
// FnInitialize and FnShutdown runs on the render goroutine. Nil callbacks
// are skipped.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnDeviceCreated   DeviceCreated
	FnDeviceDisposed  DeviceDisposed
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type DeviceCreated func(device renderer.Device, factory renderer.ResourceFactory, swapchain renderer.Swapchain) error
type DeviceDisposed func()
type Update func(deltaTime float64) error

// Render draws one frame to swapchain. The swapchain can change between
// frames when the surface is recreated.
type Render func(swapchain renderer.Swapchain, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
