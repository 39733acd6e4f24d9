// Package platform hosts the application on a windowing system and reports
// the drawing surface lifecycle to the engine.
package platform

import (
	"context"
	"unsafe"

	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// SurfaceCallbacks receives the surface lifecycle from a host. Calls come
// from the host event goroutine.
type SurfaceCallbacks interface {
	SurfaceCreated(source metadata.SwapchainSource, width, height uint32)
	SurfaceChanged(width, height uint32)
	SurfaceDestroyed()
	Pause()
	Resume()
	// Quit asks the application to shut down.
	Quit()
}

// Host is a platform the application runs on.
type Host interface {
	SupportsBackend(backend metadata.GraphicsBackend) bool
	// InstanceExtensions lists the Vulkan instance extensions presentation
	// needs on this host.
	InstanceExtensions() []string
	// VulkanProcAddr returns the vkGetInstanceProcAddr of the loader, or nil.
	VulkanProcAddr() unsafe.Pointer
	// Run pumps the host event loop until ctx is done or the user closes
	// the application.
	Run(ctx context.Context, backend metadata.GraphicsBackend, callbacks SurfaceCallbacks) error
	// Shutdown releases the host once the render loop has stopped.
	Shutdown() error
}
