// Package engine runs a Game on a platform host. It selects the graphics
// backend, builds the window and its surface view, and ties the host event
// loop to the render goroutine.
package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/platform"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"github.com/spaghettifunk/helloquad/engine/surface"
	"github.com/spaghettifunk/helloquad/engine/window"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// The host paused the application
	EngineStageSuspended
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageSuspended:
		return "suspended"
	case EngineStageShuttingDown:
		return "shutting-down"
	}
	return "unknown"
}

type Option func(*Engine)

// WithDeviceFactory replaces the factory backed by the registered drivers.
func WithDeviceFactory(f renderer.DeviceFactory) Option {
	return func(e *Engine) { e.factory = f }
}

// WithEvents shares an event registry with the engine.
func WithEvents(events *core.Events) Option {
	return func(e *Engine) { e.events = events }
}

type Engine struct {
	currentStage atomic.Uint32
	gameInstance *Game
	host         platform.Host
	factory      renderer.DeviceFactory
	events       *core.Events
	window       *window.Window
	backend      metadata.GraphicsBackend

	running  atomic.Bool
	mu       sync.Mutex
	cancel   context.CancelFunc
	stopping bool
}

// New picks the graphics backend, creates the window and initializes the
// game. The configured backend is used when the host and its driver can run
// it, otherwise OpenGL ES.
func New(g *Game, host platform.Host, opts ...Option) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.Wrap(core.ErrInvalidConfig, "game has no application config")
	}
	e := &Engine{
		gameInstance: g,
		host:         host,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		e.factory = renderer.DefaultFactory
	}
	if e.events == nil {
		e.events = core.NewEvents()
	}
	e.setStage(EngineStageInitializing)

	cfg := g.ApplicationConfig
	options := cfg.DeviceOptions
	options.ResourceBindingModel = metadata.ResourceBindingModelImproved
	options.InstanceExtensions = host.InstanceExtensions()
	options.VulkanProcAddr = host.VulkanProcAddr()

	backend, err := e.selectBackend(cfg.Backend, options)
	if err != nil {
		return nil, err
	}
	e.backend = backend

	w, err := window.New(surface.Config{
		Backend:     backend,
		Options:     options,
		Factory:     e.factory,
		DepthFormat: cfg.DepthFormat,
		VSync:       cfg.VSync,
	}, e.windowCallbacks(), window.WithEvents(e.events))
	if err != nil {
		return nil, err
	}
	e.window = w

	e.events.Register(core.EventCodeApplicationQuit, e, e.onEvent)

	if g.FnInitialize != nil {
		if err := g.FnInitialize(); err != nil {
			return nil, errors.Wrap(err, "initializing game")
		}
	}
	e.setStage(EngineStageInitialized)
	core.LogInfo("%s initialized with %s", cfg.Name, backend)
	return e, nil
}

func (e *Engine) selectBackend(want metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions) (metadata.GraphicsBackend, error) {
	if want.SurfaceBinding() == metadata.SurfaceBindingUnsupported {
		return 0, errors.Wrapf(core.ErrUnsupportedBackend, "%s", want)
	}
	err := e.probe(want, options)
	if err == nil {
		return want, nil
	}
	if want == metadata.GraphicsBackendOpenGLES {
		return 0, err
	}

	core.LogWarn("vk threw an error, or device doesn't support Vulkan: %v", err)
	fallback := metadata.GraphicsBackendOpenGLES
	if err := e.probe(fallback, options); err != nil {
		return 0, errors.Wrap(err, "no usable graphics backend")
	}
	return fallback, nil
}

func (e *Engine) probe(backend metadata.GraphicsBackend, options metadata.GraphicsDeviceOptions) error {
	if !e.host.SupportsBackend(backend) {
		return errors.Wrapf(core.ErrUnsupportedBackend, "host cannot present %s", backend)
	}
	if p, ok := e.factory.(renderer.Prober); ok {
		return p.Probe(backend, options)
	}
	return nil
}

func (e *Engine) windowCallbacks() window.Callbacks {
	g := e.gameInstance
	return window.Callbacks{
		FnDeviceCreated: func(device renderer.Device, factory renderer.ResourceFactory, swapchain renderer.Swapchain) error {
			if g.FnDeviceCreated == nil {
				return nil
			}
			return g.FnDeviceCreated(device, factory, swapchain)
		},
		FnDeviceDisposed: func() {
			if g.FnDeviceDisposed != nil {
				g.FnDeviceDisposed()
			}
		},
		FnResized: func(width, height uint32) {
			if g.FnOnResize == nil {
				return
			}
			if err := g.FnOnResize(width, height); err != nil {
				core.LogError("game resize failed: %v", err)
			}
		},
		FnRendering: func(delta float64) error {
			if g.FnUpdate != nil {
				if err := g.FnUpdate(delta); err != nil {
					return errors.Wrap(err, "game update failed")
				}
			}
			if g.FnRender != nil {
				if err := g.FnRender(e.window.View().Swapchain(), delta); err != nil {
					return errors.Wrap(err, "game render failed")
				}
			}
			return nil
		},
	}
}

// Run starts the render goroutine and pumps the host event loop on the
// calling goroutine until either side stops. It returns the first error.
// Run may only be called once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return core.ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	if e.stopping {
		cancel()
	}
	e.mu.Unlock()

	e.setStage(EngineStageRunning)

	renderErr := make(chan error, 1)
	go func() {
		err := e.window.Run(ctx)
		cancel()
		renderErr <- err
	}()

	hostErr := e.host.Run(ctx, e.backend, e)
	cancel()
	err := <-renderErr

	e.setStage(EngineStageShuttingDown)
	if e.gameInstance.FnShutdown != nil {
		if serr := e.gameInstance.FnShutdown(); serr != nil && err == nil {
			err = errors.Wrap(serr, "game shutdown failed")
		}
	}
	if herr := e.host.Shutdown(); herr != nil {
		core.LogError("host shutdown failed: %v", herr)
		if hostErr == nil {
			hostErr = herr
		}
	}
	if err == nil {
		err = hostErr
	}
	if err != nil {
		return err
	}
	core.LogInfo("engine stopped")
	return nil
}

// Shutdown stops Run. It can be called any number of times from any
// goroutine, also before Run.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopping {
		return
	}
	e.stopping = true
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) Stage() Stage { return Stage(e.currentStage.Load()) }

func (e *Engine) Backend() metadata.GraphicsBackend { return e.backend }

func (e *Engine) Events() *core.Events { return e.events }

func (e *Engine) Window() *window.Window { return e.window }

func (e *Engine) setStage(s Stage) { e.currentStage.Store(uint32(s)) }

func (e *Engine) SurfaceCreated(source metadata.SwapchainSource, width, height uint32) {
	core.LogDebug("surface created (%dx%d)", width, height)
	e.window.View().SurfaceCreated(source, width, height)
}

func (e *Engine) SurfaceChanged(width, height uint32) {
	core.LogDebug("Window resize: %d, %d", width, height)
	e.window.View().SurfaceChanged(width, height)
}

func (e *Engine) SurfaceDestroyed() {
	core.LogDebug("surface destroyed")
	e.window.View().SurfaceDestroyed()
}

func (e *Engine) Pause() {
	if e.Stage() == EngineStageRunning {
		e.setStage(EngineStageSuspended)
	}
	core.LogInfo("application paused")
	e.window.View().Pause()
	e.events.Fire(core.EventCodePaused, e, core.EventContext{})
}

func (e *Engine) Resume() {
	if e.Stage() == EngineStageSuspended {
		e.setStage(EngineStageRunning)
	}
	core.LogInfo("application resumed")
	e.window.View().Resume()
	e.events.Fire(core.EventCodeResumed, e, core.EventContext{})
}

// Quit fires EventCodeApplicationQuit. The engine shuts down when the event
// reaches it.
func (e *Engine) Quit() {
	// NOTE: Technically firing an event to itself, but there may be other listeners.
	e.events.Fire(core.EventCodeApplicationQuit, e, core.EventContext{})
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if code == core.EventCodeApplicationQuit {
		core.LogInfo("EventCodeApplicationQuit received, shutting down.")
		e.Shutdown()
		return true
	}
	return false
}
