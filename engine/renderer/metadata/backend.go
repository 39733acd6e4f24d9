package metadata

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// GraphicsBackend identifies the GPU API a device is created for.
type GraphicsBackend uint8

const (
	GraphicsBackendDirect3D11 GraphicsBackend = iota
	GraphicsBackendVulkan
	GraphicsBackendOpenGL
	GraphicsBackendMetal
	GraphicsBackendOpenGLES
)

func (b GraphicsBackend) String() string {
	switch b {
	case GraphicsBackendDirect3D11:
		return "direct3d11"
	case GraphicsBackendVulkan:
		return "vulkan"
	case GraphicsBackendOpenGL:
		return "opengl"
	case GraphicsBackendMetal:
		return "metal"
	case GraphicsBackendOpenGLES:
		return "opengles"
	default:
		return fmt.Sprintf("GraphicsBackend(%d)", uint8(b))
	}
}

// ParseGraphicsBackend accepts the names returned by String plus a few
// common aliases.
func ParseGraphicsBackend(s string) (GraphicsBackend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct3d11", "d3d11":
		return GraphicsBackendDirect3D11, nil
	case "vulkan", "vk":
		return GraphicsBackendVulkan, nil
	case "opengl", "gl":
		return GraphicsBackendOpenGL, nil
	case "metal":
		return GraphicsBackendMetal, nil
	case "opengles", "gles":
		return GraphicsBackendOpenGLES, nil
	}
	return 0, errors.Errorf("unknown graphics backend %q", s)
}

// SurfaceBinding describes how a backend's device relates to the platform
// surface it presents to.
type SurfaceBinding uint8

const (
	// SurfaceBindingUnsupported marks backends that cannot drive a surface view.
	SurfaceBindingUnsupported SurfaceBinding = iota
	// SwapchainRebindable devices outlive their surface. Losing the surface
	// only invalidates the swapchain.
	SwapchainRebindable
	// DeviceBoundToSurface devices own the surface's context. Losing the
	// surface invalidates the whole device.
	DeviceBoundToSurface
)

func (s SurfaceBinding) String() string {
	switch s {
	case SwapchainRebindable:
		return "swapchain-rebindable"
	case DeviceBoundToSurface:
		return "device-bound-to-surface"
	default:
		return "unsupported"
	}
}

// SurfaceBinding returns the surface capability of the backend.
func (b GraphicsBackend) SurfaceBinding() SurfaceBinding {
	switch b {
	case GraphicsBackendVulkan:
		return SwapchainRebindable
	case GraphicsBackendOpenGLES:
		return DeviceBoundToSurface
	default:
		return SurfaceBindingUnsupported
	}
}
