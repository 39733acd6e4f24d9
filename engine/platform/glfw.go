//go:build !android

package platform

import (
	"context"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type DesktopOptions struct {
	Name   string
	X, Y   uint32
	Width  uint32
	Height uint32
	VSync  bool
}

// Desktop hosts the application in a GLFW window. Vulkan draws to a window
// without a client API; OpenGL ES gets a context driven by a GL worker
// goroutine.
type Desktop struct {
	options   DesktopOptions
	vulkan    bool
	backend   metadata.GraphicsBackend
	window    *glfw.Window
	tracker   *surfaceTracker
	callbacks SurfaceCallbacks
}

// NewDesktop initializes GLFW. It must be called from the main goroutine.
func NewDesktop(options DesktopOptions) (*Desktop, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize glfw")
	}
	return &Desktop{
		options: options,
		vulkan:  glfw.VulkanSupported(),
	}, nil
}

func (d *Desktop) SupportsBackend(backend metadata.GraphicsBackend) bool {
	switch backend {
	case metadata.GraphicsBackendVulkan:
		return d.vulkan
	case metadata.GraphicsBackendOpenGLES:
		return true
	}
	return false
}

func (d *Desktop) InstanceExtensions() []string {
	if !d.vulkan {
		return nil
	}
	return glfw.GetCurrentContext().GetRequiredInstanceExtensions()
}

func (d *Desktop) VulkanProcAddr() unsafe.Pointer {
	if !d.vulkan {
		return nil
	}
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (d *Desktop) Run(ctx context.Context, backend metadata.GraphicsBackend, callbacks SurfaceCallbacks) error {
	if d.window != nil {
		return core.ErrAlreadyRunning
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	switch backend {
	case metadata.GraphicsBackendVulkan:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	case metadata.GraphicsBackendOpenGLES:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 0)
	default:
		return errors.Wrapf(core.ErrUnsupportedBackend, "desktop host cannot open a %s window", backend)
	}

	window, err := glfw.CreateWindow(int(d.options.Width), int(d.options.Height), d.options.Name, nil, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create window")
	}
	d.window = window
	d.backend = backend
	d.tracker = newSurfaceTracker(callbacks)
	d.callbacks = callbacks

	window.SetKeyCallback(d.onKey)
	window.SetFramebufferSizeCallback(d.onFramebufferSize)
	window.SetIconifyCallback(d.onIconify)
	window.SetPos(int(d.options.X), int(d.options.Y))
	window.Show()

	width, height := window.GetFramebufferSize()
	d.tracker.resize(uint32(width), uint32(height))
	d.tracker.show(d.source())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			glfw.PostEmptyEvent()
		case <-stop:
		}
	}()

	for !window.ShouldClose() && ctx.Err() == nil {
		glfw.WaitEvents()
	}
	core.LogDebug("desktop event loop finished")
	return nil
}

func (d *Desktop) Shutdown() error {
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
	glfw.Terminate()
	return nil
}

// source returns a fresh surface source for the window. GL surfaces start
// their worker on first use.
func (d *Desktop) source() metadata.SwapchainSource {
	window := d.window
	if d.backend == metadata.GraphicsBackendVulkan {
		return metadata.SwapchainSource{
			Vulkan: func(instance interface{}) (uintptr, error) {
				return window.CreateWindowSurface(instance, nil)
			},
		}
	}
	return metadata.SwapchainSource{GL: newDesktopGLSurface(window, d.options.VSync)}
}

func (d *Desktop) onKey(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		d.callbacks.Quit()
	}
}

// Minimized windows have a zero sized framebuffer, the iconify callback
// handles them.
func (d *Desktop) onFramebufferSize(w *glfw.Window, width, height int) {
	d.tracker.resize(uint32(width), uint32(height))
}

func (d *Desktop) onIconify(w *glfw.Window, iconified bool) {
	if iconified {
		core.LogInfo("Window minimized, suspending application.")
		d.tracker.focus(false)
		d.tracker.hide()
		return
	}
	core.LogInfo("Window restored, resuming application.")
	d.tracker.focus(true)
	width, height := w.GetFramebufferSize()
	d.tracker.resize(uint32(width), uint32(height))
	d.tracker.show(d.source())
}

// desktopGLSurface owns the window GL context on a worker goroutine that
// executes the calls queued by gl.Context and swaps the buffers.
type desktopGLSurface struct {
	window *glfw.Window
	vsync  bool

	startOnce   sync.Once
	releaseOnce sync.Once
	started     bool
	ctx         gl.Context
	swap        chan chan struct{}
	quit        chan struct{}
	done        chan struct{}
}

func newDesktopGLSurface(window *glfw.Window, vsync bool) *desktopGLSurface {
	return &desktopGLSurface{
		window: window,
		vsync:  vsync,
		swap:   make(chan chan struct{}),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *desktopGLSurface) Context() gl.Context {
	s.startOnce.Do(func() {
		ready := make(chan struct{})
		go s.work(ready)
		<-ready
		s.started = true
	})
	return s.ctx
}

// Present waits for the queued GL calls and swaps the window buffers.
func (s *desktopGLSurface) Present() error {
	s.Context().Finish()
	reply := make(chan struct{})
	select {
	case s.swap <- reply:
	case <-s.done:
		return errors.New("gl surface released")
	}
	<-reply
	return nil
}

func (s *desktopGLSurface) Release() {
	s.releaseOnce.Do(func() {
		if !s.started {
			return
		}
		close(s.quit)
		<-s.done
	})
}

func (s *desktopGLSurface) work(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	s.window.MakeContextCurrent()
	defer glfw.DetachCurrentContext()
	if s.vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	ctx, worker := gl.NewContext()
	s.ctx = ctx
	close(ready)

	workAvailable := worker.WorkAvailable()
	for {
		select {
		case <-workAvailable:
			worker.DoWork()
		case reply := <-s.swap:
			s.window.SwapBuffers()
			close(reply)
		case <-s.quit:
			return
		}
	}
}
