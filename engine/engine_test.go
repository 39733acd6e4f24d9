package engine

import (
	"context"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/config"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/platform"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"github.com/spaghettifunk/helloquad/engine/renderer/rendertest"
)

type fakeHost struct {
	mu         sync.Mutex
	supported  map[metadata.GraphicsBackend]bool
	script     func(cb platform.SurfaceCallbacks)
	runBackend metadata.GraphicsBackend
	shutdowns  int
}

func newFakeHost(backends ...metadata.GraphicsBackend) *fakeHost {
	h := &fakeHost{supported: map[metadata.GraphicsBackend]bool{}}
	for _, b := range backends {
		h.supported[b] = true
	}
	return h
}

func (h *fakeHost) SupportsBackend(b metadata.GraphicsBackend) bool { return h.supported[b] }
func (h *fakeHost) InstanceExtensions() []string                    { return []string{"VK_KHR_surface"} }
func (h *fakeHost) VulkanProcAddr() unsafe.Pointer                  { return nil }

func (h *fakeHost) Run(ctx context.Context, backend metadata.GraphicsBackend, cb platform.SurfaceCallbacks) error {
	h.mu.Lock()
	h.runBackend = backend
	h.mu.Unlock()
	if h.script != nil {
		h.script(cb)
	}
	<-ctx.Done()
	return nil
}

func (h *fakeHost) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdowns++
	return nil
}

func newGame(t *testing.T, backend string) *Game {
	t.Helper()
	cfg := config.Default()
	cfg.Renderer.Backend = backend
	appCfg, err := NewApplicationConfig(cfg)
	if err != nil {
		t.Fatalf("NewApplicationConfig() error = %v", err)
	}
	return &Game{ApplicationConfig: appCfg}
}

func TestBackendSelection(t *testing.T) {
	tests := []struct {
		name      string
		configure string
		host      []metadata.GraphicsBackend
		probeErrs map[metadata.GraphicsBackend]error
		want      metadata.GraphicsBackend
		wantErr   error
	}{
		{
			name:      "vulkan available",
			configure: "vulkan",
			host:      []metadata.GraphicsBackend{metadata.GraphicsBackendVulkan, metadata.GraphicsBackendOpenGLES},
			want:      metadata.GraphicsBackendVulkan,
		},
		{
			name:      "host without vulkan",
			configure: "vulkan",
			host:      []metadata.GraphicsBackend{metadata.GraphicsBackendOpenGLES},
			want:      metadata.GraphicsBackendOpenGLES,
		},
		{
			name:      "vulkan probe fails",
			configure: "vulkan",
			host:      []metadata.GraphicsBackend{metadata.GraphicsBackendVulkan, metadata.GraphicsBackendOpenGLES},
			probeErrs: map[metadata.GraphicsBackend]error{metadata.GraphicsBackendVulkan: errors.New("no icd")},
			want:      metadata.GraphicsBackendOpenGLES,
		},
		{
			name:      "opengles requested",
			configure: "opengles",
			host:      []metadata.GraphicsBackend{metadata.GraphicsBackendVulkan, metadata.GraphicsBackendOpenGLES},
			want:      metadata.GraphicsBackendOpenGLES,
		},
		{
			name:      "nothing usable",
			configure: "vulkan",
			host:      nil,
			wantErr:   core.ErrUnsupportedBackend,
		},
		{
			name:      "metal",
			configure: "metal",
			host:      []metadata.GraphicsBackend{metadata.GraphicsBackendOpenGLES},
			wantErr:   core.ErrUnsupportedBackend,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := rendertest.NewFactory()
			factory.ProbeErrs = tt.probeErrs
			e, err := New(newGame(t, tt.configure), newFakeHost(tt.host...), WithDeviceFactory(factory))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if e.Backend() != tt.want {
				t.Fatalf("Backend() = %s, want %s", e.Backend(), tt.want)
			}
			if e.Stage() != EngineStageInitialized {
				t.Fatalf("Stage() = %s, want initialized", e.Stage())
			}
		})
	}
}

func TestRunUntilQuit(t *testing.T) {
	factory := rendertest.NewFactory()
	host := newFakeHost(metadata.GraphicsBackendOpenGLES)
	host.script = func(cb platform.SurfaceCallbacks) {
		cb.SurfaceCreated(metadata.SwapchainSource{}, 640, 480)
	}

	g := newGame(t, "opengles")
	var (
		mu       sync.Mutex
		created  int
		disposed int
		frames   int
		shutdown int
	)
	var e *Engine
	g.FnDeviceCreated = func(device renderer.Device, factory renderer.ResourceFactory, swapchain renderer.Swapchain) error {
		mu.Lock()
		defer mu.Unlock()
		created++
		return nil
	}
	g.FnDeviceDisposed = func() {
		mu.Lock()
		defer mu.Unlock()
		disposed++
	}
	g.FnRender = func(swapchain renderer.Swapchain, delta float64) error {
		if swapchain == nil {
			return errors.New("no swapchain")
		}
		mu.Lock()
		frames++
		n := frames
		mu.Unlock()
		if n == 3 {
			e.Quit()
		}
		return nil
	}
	g.FnShutdown = func() error {
		shutdown++
		return nil
	}

	var err error
	e, err = New(g, host, WithDeviceFactory(factory))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Run() only returned at the test deadline")
	}

	mu.Lock()
	defer mu.Unlock()
	if created != 1 || disposed != 1 {
		t.Fatalf("created=%d disposed=%d, want 1 and 1", created, disposed)
	}
	if frames < 3 {
		t.Fatalf("frames = %d, want at least 3", frames)
	}
	if shutdown != 1 || host.shutdowns != 1 {
		t.Fatalf("game shutdowns=%d host shutdowns=%d, want 1 and 1", shutdown, host.shutdowns)
	}
	if host.runBackend != metadata.GraphicsBackendOpenGLES {
		t.Fatalf("host ran %s", host.runBackend)
	}
	if !factory.Last().IsDisposed() {
		t.Fatal("device not disposed")
	}
	if e.Stage() != EngineStageShuttingDown {
		t.Fatalf("Stage() = %s", e.Stage())
	}
	if err := e.Run(context.Background()); err != core.ErrAlreadyRunning {
		t.Fatalf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRenderErrorStopsRun(t *testing.T) {
	host := newFakeHost(metadata.GraphicsBackendVulkan)
	host.script = func(cb platform.SurfaceCallbacks) {
		cb.SurfaceCreated(metadata.SwapchainSource{}, 64, 64)
	}
	boom := errors.New("boom")
	g := newGame(t, "vulkan")
	g.FnRender = func(renderer.Swapchain, float64) error { return boom }

	e, err := New(g, host, WithDeviceFactory(rendertest.NewFactory()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Run(ctx); errors.Cause(err) != boom {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	e, err := New(newGame(t, "opengles"), newFakeHost(metadata.GraphicsBackendOpenGLES), WithDeviceFactory(rendertest.NewFactory()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	e.Shutdown()
	e.Shutdown()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Shutdown")
	}
}

func TestPauseResumeStages(t *testing.T) {
	events := core.NewEvents()
	var fired []core.SystemEventCode
	for _, code := range []core.SystemEventCode{core.EventCodePaused, core.EventCodeResumed} {
		events.Register(code, t, func(code core.SystemEventCode, _, _ interface{}, _ core.EventContext) bool {
			fired = append(fired, code)
			return false
		})
	}
	e, err := New(newGame(t, "opengles"), newFakeHost(metadata.GraphicsBackendOpenGLES),
		WithDeviceFactory(rendertest.NewFactory()), WithEvents(events))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	e.setStage(EngineStageRunning)

	e.Pause()
	if e.Stage() != EngineStageSuspended {
		t.Fatalf("Stage() after Pause = %s", e.Stage())
	}
	e.Resume()
	if e.Stage() != EngineStageRunning {
		t.Fatalf("Stage() after Resume = %s", e.Stage())
	}
	if len(fired) != 2 || fired[0] != core.EventCodePaused || fired[1] != core.EventCodeResumed {
		t.Fatalf("events = %v", fired)
	}
}
