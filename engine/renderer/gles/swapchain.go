package gles

import (
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// GLESSwapchain is the default framebuffer of the surface. The host resizes
// the drawable itself, so Resize only records the size used for viewports.
type GLESSwapchain struct {
	device      *GLESGraphicsDevice
	width       uint32
	height      uint32
	depthFormat metadata.PixelFormat
	disposed    bool
}

func (s *GLESSwapchain) Framebuffer() renderer.Framebuffer { return &GLESFramebuffer{swapchain: s} }

func (s *GLESSwapchain) Width() uint32  { return s.width }
func (s *GLESSwapchain) Height() uint32 { return s.height }

func (s *GLESSwapchain) Resize(width, height uint32) error {
	s.width, s.height = width, height
	return nil
}

func (s *GLESSwapchain) Dispose() { s.disposed = true }

// GLESFramebuffer targets framebuffer object 0.
type GLESFramebuffer struct {
	swapchain *GLESSwapchain
}

func (f *GLESFramebuffer) Width() uint32  { return f.swapchain.width }
func (f *GLESFramebuffer) Height() uint32 { return f.swapchain.height }

func (f *GLESFramebuffer) OutputDescription() metadata.OutputDescription {
	return metadata.OutputDescription{
		ColorFormat: metadata.PixelFormatR8G8B8A8UNorm,
		DepthFormat: f.swapchain.depthFormat,
	}
}
