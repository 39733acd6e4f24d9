package metadata

import "golang.org/x/mobile/gl"

// VulkanSurfaceFunc creates a VkSurfaceKHR for the given VkInstance and
// returns its handle.
type VulkanSurfaceFunc func(instance interface{}) (uintptr, error)

// GLSurface is a drawable OpenGL ES surface owned by the host platform.
type GLSurface interface {
	// Context returns the GL context bound to the surface.
	Context() gl.Context
	// Present shows the back buffer.
	Present() error
	// Release drops the host resources backing the context.
	Release()
}

// SwapchainSource is the platform surface a swapchain presents to. Exactly
// one of the fields is used, depending on the backend.
type SwapchainSource struct {
	Vulkan VulkanSurfaceFunc
	GL     GLSurface
}

type SwapchainDescription struct {
	Source              SwapchainSource
	Width               uint32
	Height              uint32
	DepthFormat         PixelFormat
	SyncToVerticalBlank bool
}
