package gles

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

// GLESGraphicsDevice is a renderer.Device on the context of one GL surface.
// The context is created by the host with the surface, so the device can
// only present to its main swapchain.
type GLESGraphicsDevice struct {
	ctx     gl.Context
	surface metadata.GLSurface
	main    *GLESSwapchain
	factory *GLESResourceFactory
}

// NewGraphicsDevice binds a device to the GL surface of desc.
func NewGraphicsDevice(options metadata.GraphicsDeviceOptions, desc *metadata.SwapchainDescription) (*GLESGraphicsDevice, error) {
	if desc == nil || desc.Source.GL == nil {
		return nil, errors.Wrap(core.ErrSurfaceRequired, "opengles device needs a gl surface")
	}
	ctx := desc.Source.GL.Context()
	if ctx == nil {
		return nil, errors.New("gl surface has no context")
	}
	if options.PreferDepthRangeZeroToOne {
		core.LogDebug("OpenGL ES depth range is always [-1, 1].")
	}
	if options.Debug {
		core.LogDebug("OpenGL ES device created on %T", ctx)
	}

	gd := &GLESGraphicsDevice{ctx: ctx, surface: desc.Source.GL}
	gd.factory = &GLESResourceFactory{device: gd}
	gd.main = &GLESSwapchain{
		device:      gd,
		width:       desc.Width,
		height:      desc.Height,
		depthFormat: desc.DepthFormat,
	}
	return gd, nil
}

func (gd *GLESGraphicsDevice) Backend() metadata.GraphicsBackend {
	return metadata.GraphicsBackendOpenGLES
}

func (gd *GLESGraphicsDevice) ResourceFactory() renderer.ResourceFactory { return gd.factory }

func (gd *GLESGraphicsDevice) MainSwapchain() renderer.Swapchain { return gd.main }

func (gd *GLESGraphicsDevice) UpdateBuffer(buffer renderer.Buffer, offset uint32, data []byte) error {
	b, ok := buffer.(*GLESBuffer)
	if !ok {
		return errors.Errorf("buffer %T was not created by an opengles device", buffer)
	}
	return b.Update(offset, data)
}

func (gd *GLESGraphicsDevice) SubmitCommands(cl renderer.CommandList) error {
	list, ok := cl.(*GLESCommandList)
	if !ok {
		return errors.Errorf("command list %T was not created by an opengles device", cl)
	}
	return list.execute()
}

func (gd *GLESGraphicsDevice) SwapBuffers(swapchain renderer.Swapchain) error {
	sc, ok := swapchain.(*GLESSwapchain)
	if !ok || sc.device != gd {
		return errors.Errorf("swapchain %T does not belong to this opengles device", swapchain)
	}
	if sc.disposed {
		return errors.New("present on a disposed swapchain")
	}
	return gd.surface.Present()
}

func (gd *GLESGraphicsDevice) WaitForIdle() {
	gd.ctx.Finish()
}

// Dispose releases the surface context. Resources created on the device
// must be disposed first.
func (gd *GLESGraphicsDevice) Dispose() {
	if gd.surface == nil {
		return
	}
	gd.main.Dispose()
	gd.surface.Release()
	gd.surface = nil
}

// GLESResourceFactory creates objects on the device context.
type GLESResourceFactory struct {
	device *GLESGraphicsDevice
}

func (f *GLESResourceFactory) CreateBuffer(desc metadata.BufferDescription) (renderer.Buffer, error) {
	b, err := BufferCreate(f.device.ctx, desc)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f *GLESResourceFactory) CreateShaders(vertex, fragment metadata.ShaderDescription) ([]renderer.Shader, error) {
	vs, err := ShaderCreate(f.device.ctx, vertex)
	if err != nil {
		return nil, err
	}
	fs, err := ShaderCreate(f.device.ctx, fragment)
	if err != nil {
		vs.Dispose()
		return nil, err
	}
	return []renderer.Shader{vs, fs}, nil
}

func (f *GLESResourceFactory) CreateGraphicsPipeline(desc renderer.GraphicsPipelineDescription) (renderer.Pipeline, error) {
	p, err := NewGraphicsPipeline(f.device.ctx, desc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (f *GLESResourceFactory) CreateCommandList() (renderer.CommandList, error) {
	return NewCommandList(f.device.ctx), nil
}

func (f *GLESResourceFactory) CreateSwapchain(desc metadata.SwapchainDescription) (renderer.Swapchain, error) {
	return nil, errors.Wrap(core.ErrUnsupportedBackend, "opengles devices only present to the surface they were created with")
}
