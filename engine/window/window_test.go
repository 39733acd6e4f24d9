package window

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"github.com/spaghettifunk/helloquad/engine/renderer/rendertest"
	"github.com/spaghettifunk/helloquad/engine/surface"
)

type fakeTime struct {
	now time.Duration
}

func (f *fakeTime) source() time.Duration { return f.now }

type harness struct {
	calls  []string
	deltas []float64
}

func (h *harness) callbacks() Callbacks {
	return Callbacks{
		FnDeviceCreated: func(device renderer.Device, factory renderer.ResourceFactory, swapchain renderer.Swapchain) error {
			if factory == nil || swapchain == nil {
				return fmt.Errorf("missing factory or swapchain")
			}
			h.calls = append(h.calls, "created")
			return nil
		},
		FnDeviceDisposed: func() { h.calls = append(h.calls, "disposed") },
		FnResized: func(width, height uint32) {
			h.calls = append(h.calls, fmt.Sprintf("resized %dx%d", width, height))
		},
		FnRendering: func(delta float64) error {
			h.calls = append(h.calls, "render")
			h.deltas = append(h.deltas, delta)
			return nil
		},
	}
}

func newWindow(t *testing.T, backend metadata.GraphicsBackend, clock *fakeTime, opts ...Option) (*Window, *harness) {
	t.Helper()
	h := &harness{}
	opts = append(opts, WithClock(core.NewClockWithSource(clock.source)))
	w, err := New(surface.Config{Backend: backend, Factory: rendertest.NewFactory()}, h.callbacks(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return w, h
}

func step(t *testing.T, w *Window) {
	t.Helper()
	if err := w.View().Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
}

func TestDeviceCreatedIsFollowedByResized(t *testing.T) {
	for _, b := range []metadata.GraphicsBackend{metadata.GraphicsBackendVulkan, metadata.GraphicsBackendOpenGLES} {
		t.Run(b.String(), func(t *testing.T) {
			w, h := newWindow(t, b, &fakeTime{})
			w.View().SurfaceCreated(metadata.SwapchainSource{}, 1280, 720)
			step(t, w)

			want := []string{"created", "resized 1280x720", "render"}
			if !reflect.DeepEqual(h.calls, want) {
				t.Fatalf("calls = %q, want %q", h.calls, want)
			}
		})
	}
}

func TestFrameDelta(t *testing.T) {
	clock := &fakeTime{now: 5 * time.Second}
	w, h := newWindow(t, metadata.GraphicsBackendVulkan, clock)
	w.View().SurfaceCreated(metadata.SwapchainSource{}, 64, 64)

	clock.now += 100 * time.Millisecond
	step(t, w)
	clock.now += 16 * time.Millisecond
	step(t, w)
	step(t, w)
	clock.now -= 50 * time.Millisecond
	step(t, w)
	clock.now += 20 * time.Millisecond
	step(t, w)

	want := []float64{0.1, 0.016, 0, 0, 0.02}
	if len(h.deltas) != len(want) {
		t.Fatalf("deltas = %v, want %v", h.deltas, want)
	}
	for i, d := range h.deltas {
		if d < 0 {
			t.Fatalf("delta[%d] = %v is negative", i, d)
		}
		if diff := d - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("delta[%d] = %v, want %v", i, d, want[i])
		}
	}
}

func TestLifecycleEvents(t *testing.T) {
	events := core.NewEvents()
	var got []core.SystemEventCode
	var created, disposed core.EventContext
	record := func(code core.SystemEventCode, sender, listener interface{}, ctx core.EventContext) bool {
		got = append(got, code)
		switch code {
		case core.EventCodeDeviceCreated:
			created = ctx
		case core.EventCodeDeviceDisposed:
			disposed = ctx
		}
		return false
	}
	for _, code := range []core.SystemEventCode{core.EventCodeDeviceCreated, core.EventCodeDeviceDisposed, core.EventCodeResized} {
		events.Register(code, "test", record)
	}

	w, h := newWindow(t, metadata.GraphicsBackendOpenGLES, &fakeTime{}, WithEvents(events))
	w.View().SurfaceCreated(metadata.SwapchainSource{}, 320, 200)
	step(t, w)
	w.View().SurfaceDestroyed()
	step(t, w)

	want := []core.SystemEventCode{core.EventCodeDeviceCreated, core.EventCodeResized, core.EventCodeDeviceDisposed}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if created.Data.C[0] == "" || created.Data.C[0] != disposed.Data.C[0] {
		t.Fatalf("lifetime ids created=%q disposed=%q, want equal and non-empty", created.Data.C[0], disposed.Data.C[0])
	}
	if created.Data.C[1] != "opengles" {
		t.Fatalf("backend = %q, want opengles", created.Data.C[1])
	}
	if h.calls[len(h.calls)-1] != "disposed" {
		t.Fatalf("last call = %q, want disposed", h.calls[len(h.calls)-1])
	}
}

func TestNewRejectsUnsupportedBackend(t *testing.T) {
	_, err := New(surface.Config{Backend: metadata.GraphicsBackendMetal}, Callbacks{})
	if err == nil {
		t.Fatal("New() accepted metal")
	}
}
