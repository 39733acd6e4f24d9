// Package gles implements the renderer interfaces on OpenGL ES 2.0/3.0
// through golang.org/x/mobile/gl. A device owns the context of the surface
// it was created for and dies with it.
package gles

import (
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

func init() {
	renderer.Register(metadata.GraphicsBackendOpenGLES, func(options metadata.GraphicsDeviceOptions, desc *metadata.SwapchainDescription) (renderer.Device, error) {
		gd, err := NewGraphicsDevice(options, desc)
		if err != nil {
			return nil, err
		}
		return gd, nil
	})
}
