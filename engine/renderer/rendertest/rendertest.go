// Package rendertest provides an in-memory renderer that records what it is
// asked to do. It is meant for tests of code that drives a renderer.Device.
package rendertest

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// Factory is a renderer.DeviceFactory that creates recording devices.
type Factory struct {
	mu      sync.Mutex
	devices []*Device

	// CreateErr, when set, is returned by the next CreateDevice call.
	CreateErr error
	// ProbeErrs holds the error Probe returns per backend.
	ProbeErrs map[metadata.GraphicsBackend]error
}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Probe(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if backend.SurfaceBinding() == metadata.SurfaceBindingUnsupported {
		return errors.Wrapf(core.ErrUnsupportedBackend, "%s", backend)
	}
	return f.ProbeErrs[backend]
}

func (f *Factory) CreateDevice(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions, swapchain *metadata.SwapchainDescription) (renderer.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.CreateErr; err != nil {
		f.CreateErr = nil
		return nil, err
	}
	binding := backend.SurfaceBinding()
	if binding == metadata.SurfaceBindingUnsupported {
		return nil, errors.Wrapf(core.ErrUnsupportedBackend, "%s", backend)
	}
	if swapchain == nil && binding == metadata.DeviceBoundToSurface {
		return nil, errors.Wrapf(core.ErrSurfaceRequired, "%s device", backend)
	}

	d := &Device{backend: backend, options: options}
	if swapchain != nil {
		sc, err := d.ResourceFactory().CreateSwapchain(*swapchain)
		if err != nil {
			return nil, err
		}
		d.main = sc.(*Swapchain)
	}
	f.devices = append(f.devices, d)
	return d, nil
}

// Devices returns every device created so far, oldest first.
func (f *Factory) Devices() []*Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Device(nil), f.devices...)
}

// Last returns the most recently created device, or nil.
func (f *Factory) Last() *Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.devices) == 0 {
		return nil
	}
	return f.devices[len(f.devices)-1]
}

// Device records submissions and presents. All methods are safe for
// concurrent use.
type Device struct {
	mu         sync.Mutex
	backend    metadata.GraphicsBackend
	options    metadata.GraphicsDeviceOptions
	main       *Swapchain
	swapchains []*Swapchain
	resources  []disposer
	ops        []string
	disposed   bool

	// SubmitErr and SwapErr are returned by SubmitCommands and SwapBuffers.
	SubmitErr error
	SwapErr   error
}

type disposer interface {
	isDisposed() bool
}

func (d *Device) Backend() metadata.GraphicsBackend { return d.backend }

func (d *Device) Options() metadata.GraphicsDeviceOptions { return d.options }

func (d *Device) ResourceFactory() renderer.ResourceFactory { return factory{d} }

func (d *Device) MainSwapchain() renderer.Swapchain {
	if d.main == nil {
		return nil
	}
	return d.main
}

func (d *Device) UpdateBuffer(buffer renderer.Buffer, offset uint32, data []byte) error {
	b, ok := buffer.(*Buffer)
	if !ok {
		return errors.Errorf("rendertest: foreign buffer %T", buffer)
	}
	if offset+uint32(len(data)) > b.desc.SizeInBytes {
		return errors.Errorf("rendertest: update of %d bytes at %d overflows buffer of %d", len(data), offset, b.desc.SizeInBytes)
	}
	b.mu.Lock()
	copy(b.data[offset:], data)
	b.mu.Unlock()
	d.record("update")
	return nil
}

func (d *Device) SubmitCommands(cl renderer.CommandList) error {
	if _, ok := cl.(*CommandList); !ok {
		return errors.Errorf("rendertest: foreign command list %T", cl)
	}
	d.record("submit")
	return d.SubmitErr
}

func (d *Device) SwapBuffers(swapchain renderer.Swapchain) error {
	sc, ok := swapchain.(*Swapchain)
	if !ok {
		return errors.Errorf("rendertest: foreign swapchain %T", swapchain)
	}
	if sc.IsDisposed() {
		return errors.New("rendertest: present on disposed swapchain")
	}
	d.record("swap")
	return d.SwapErr
}

func (d *Device) WaitForIdle() {
	d.record("wait")
}

func (d *Device) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed = true
	if d.main != nil {
		d.main.Dispose()
	}
}

func (d *Device) IsDisposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

// Ops returns the device level operations in call order.
func (d *Device) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ops...)
}

// Swapchains returns every swapchain created on the device, main included.
func (d *Device) Swapchains() []*Swapchain {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Swapchain(nil), d.swapchains...)
}

// LiveResources counts created buffers, shaders, pipelines and command lists
// that are not disposed yet.
func (d *Device) LiveResources() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.resources {
		if !r.isDisposed() {
			n++
		}
	}
	return n
}

func (d *Device) record(op string) {
	d.mu.Lock()
	d.ops = append(d.ops, op)
	d.mu.Unlock()
}

func (d *Device) track(r disposer) {
	d.mu.Lock()
	d.resources = append(d.resources, r)
	d.mu.Unlock()
}

type factory struct {
	d *Device
}

func (f factory) CreateBuffer(desc metadata.BufferDescription) (renderer.Buffer, error) {
	if desc.SizeInBytes == 0 {
		return nil, errors.New("rendertest: zero sized buffer")
	}
	b := &Buffer{desc: desc, data: make([]byte, desc.SizeInBytes)}
	f.d.track(b)
	return b, nil
}

func (f factory) CreateShaders(vertex, fragment metadata.ShaderDescription) ([]renderer.Shader, error) {
	if len(vertex.Code) == 0 || len(fragment.Code) == 0 {
		return nil, errors.Wrap(core.ErrShaderNotFound, "rendertest: empty shader code")
	}
	vs := &Shader{desc: vertex}
	fs := &Shader{desc: fragment}
	f.d.track(vs)
	f.d.track(fs)
	return []renderer.Shader{vs, fs}, nil
}

func (f factory) CreateGraphicsPipeline(desc renderer.GraphicsPipelineDescription) (renderer.Pipeline, error) {
	if len(desc.ShaderSet.Shaders) == 0 {
		return nil, errors.New("rendertest: pipeline without shaders")
	}
	p := &Pipeline{Description: desc}
	f.d.track(p)
	return p, nil
}

func (f factory) CreateCommandList() (renderer.CommandList, error) {
	cl := &CommandList{}
	f.d.track(cl)
	return cl, nil
}

func (f factory) CreateSwapchain(desc metadata.SwapchainDescription) (renderer.Swapchain, error) {
	sc := &Swapchain{desc: desc, width: desc.Width, height: desc.Height}
	f.d.mu.Lock()
	f.d.swapchains = append(f.d.swapchains, sc)
	f.d.mu.Unlock()
	return sc, nil
}

type Swapchain struct {
	mu       sync.Mutex
	desc     metadata.SwapchainDescription
	width    uint32
	height   uint32
	resizes  [][2]uint32
	disposed bool

	// ResizeErr is returned by Resize.
	ResizeErr error
}

func (s *Swapchain) Framebuffer() renderer.Framebuffer { return &Framebuffer{s: s} }

func (s *Swapchain) Width() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

func (s *Swapchain) Height() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

func (s *Swapchain) Resize(width, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ResizeErr != nil {
		return s.ResizeErr
	}
	s.width, s.height = width, height
	s.resizes = append(s.resizes, [2]uint32{width, height})
	return nil
}

func (s *Swapchain) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

func (s *Swapchain) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Resizes returns the sizes passed to Resize, in call order.
func (s *Swapchain) Resizes() [][2]uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]uint32(nil), s.resizes...)
}

func (s *Swapchain) Description() metadata.SwapchainDescription { return s.desc }

type Framebuffer struct {
	s *Swapchain
}

func (f *Framebuffer) Width() uint32  { return f.s.Width() }
func (f *Framebuffer) Height() uint32 { return f.s.Height() }

func (f *Framebuffer) OutputDescription() metadata.OutputDescription {
	return metadata.OutputDescription{
		ColorFormat: metadata.PixelFormatB8G8R8A8UNorm,
		DepthFormat: f.s.desc.DepthFormat,
	}
}

// Swapchain returns the swapchain the framebuffer belongs to.
func (f *Framebuffer) Swapchain() *Swapchain { return f.s }

type Buffer struct {
	mu       sync.Mutex
	desc     metadata.BufferDescription
	data     []byte
	disposed bool
}

func (b *Buffer) SizeInBytes() uint32         { return b.desc.SizeInBytes }
func (b *Buffer) Usage() metadata.BufferUsage { return b.desc.Usage }
func (b *Buffer) Dispose()                    { b.mu.Lock(); b.disposed = true; b.mu.Unlock() }
func (b *Buffer) isDisposed() bool            { b.mu.Lock(); defer b.mu.Unlock(); return b.disposed }

// Data returns a copy of the buffer contents.
func (b *Buffer) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

type Shader struct {
	mu       sync.Mutex
	desc     metadata.ShaderDescription
	disposed bool
}

func (s *Shader) Stage() metadata.ShaderStage { return s.desc.Stage }
func (s *Shader) EntryPoint() string          { return s.desc.EntryPoint }
func (s *Shader) Dispose()                    { s.mu.Lock(); s.disposed = true; s.mu.Unlock() }
func (s *Shader) isDisposed() bool            { s.mu.Lock(); defer s.mu.Unlock(); return s.disposed }

type Pipeline struct {
	mu          sync.Mutex
	Description renderer.GraphicsPipelineDescription
	disposed    bool
}

func (p *Pipeline) Dispose()         { p.mu.Lock(); p.disposed = true; p.mu.Unlock() }
func (p *Pipeline) isDisposed() bool { p.mu.Lock(); defer p.mu.Unlock(); return p.disposed }

// Command is one recorded call. Args holds the call arguments in order.
type Command struct {
	Name string
	Args []interface{}
}

type CommandList struct {
	mu        sync.Mutex
	recording bool
	commands  []Command
	disposed  bool
	err       error
}

func (c *CommandList) add(name string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording && name != "Begin" && c.err == nil {
		c.err = errors.Errorf("rendertest: %s outside Begin/End", name)
	}
	c.commands = append(c.commands, Command{Name: name, Args: args})
}

func (c *CommandList) Begin() {
	c.mu.Lock()
	c.commands = nil
	c.err = nil
	c.recording = true
	c.mu.Unlock()
	c.add("Begin")
}

func (c *CommandList) SetFramebuffer(fb renderer.Framebuffer) { c.add("SetFramebuffer", fb) }

func (c *CommandList) ClearColorTarget(index uint32, color metadata.RgbaFloat) {
	c.add("ClearColorTarget", index, color)
}

func (c *CommandList) SetVertexBuffer(index uint32, buffer renderer.Buffer) {
	c.add("SetVertexBuffer", index, buffer)
}

func (c *CommandList) SetIndexBuffer(buffer renderer.Buffer, format metadata.IndexFormat) {
	c.add("SetIndexBuffer", buffer, format)
}

func (c *CommandList) SetPipeline(pipeline renderer.Pipeline) { c.add("SetPipeline", pipeline) }

func (c *CommandList) DrawIndexed(indexCount, instanceCount, indexStart uint32, vertexOffset int32, instanceStart uint32) {
	c.add("DrawIndexed", indexCount, instanceCount, indexStart, vertexOffset, instanceStart)
}

func (c *CommandList) End() error {
	c.add("End")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = false
	return c.err
}

func (c *CommandList) Dispose()         { c.mu.Lock(); c.disposed = true; c.mu.Unlock() }
func (c *CommandList) isDisposed() bool { c.mu.Lock(); defer c.mu.Unlock(); return c.disposed }

// Commands returns the commands recorded since the last Begin.
func (c *CommandList) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Command(nil), c.commands...)
}

// Names returns the names of the recorded commands.
func (c *CommandList) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.commands))
	for i, cmd := range c.commands {
		names[i] = cmd.Name
	}
	return names
}
