//go:build android

package platform

import (
	"context"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/app"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/gl"
)

// Mobile hosts the application in an x/mobile activity. The app package
// owns the EGL context, so only OpenGL ES is available.
type Mobile struct {
	app app.App
}

// NewMobile wraps the app handed to the app.Main callback.
func NewMobile(a app.App) *Mobile {
	return &Mobile{app: a}
}

func (m *Mobile) SupportsBackend(backend metadata.GraphicsBackend) bool {
	return backend == metadata.GraphicsBackendOpenGLES
}

func (m *Mobile) InstanceExtensions() []string { return nil }

func (m *Mobile) VulkanProcAddr() unsafe.Pointer { return nil }

func (m *Mobile) Run(ctx context.Context, backend metadata.GraphicsBackend, callbacks SurfaceCallbacks) error {
	if !m.SupportsBackend(backend) {
		return errors.Wrapf(core.ErrUnsupportedBackend, "mobile host cannot drive %s", backend)
	}
	tracker := newSurfaceTracker(callbacks)

	for {
		var e interface{}
		select {
		case <-ctx.Done():
			return nil
		case e = <-m.app.Events():
		}

		switch e := m.app.Filter(e).(type) {
		case lifecycle.Event:
			// Shown surfaces are created before focus resumes rendering,
			// and rendering pauses before the surface goes away.
			if e.Crosses(lifecycle.StageVisible) == lifecycle.CrossOn {
				glctx, _ := e.DrawContext.(gl.Context)
				tracker.show(metadata.SwapchainSource{GL: &mobileGLSurface{app: m.app, ctx: glctx}})
			}
			switch e.Crosses(lifecycle.StageFocused) {
			case lifecycle.CrossOn:
				tracker.focus(true)
			case lifecycle.CrossOff:
				tracker.focus(false)
			}
			if e.Crosses(lifecycle.StageVisible) == lifecycle.CrossOff {
				tracker.hide()
			}
			if e.To == lifecycle.StageDead {
				core.LogInfo("activity destroyed")
				return nil
			}
		case size.Event:
			tracker.resize(uint32(e.WidthPx), uint32(e.HeightPx))
		case paint.Event:
			// The render goroutine publishes every frame on its own.
		}
	}
}

func (m *Mobile) Shutdown() error { return nil }

type mobileGLSurface struct {
	app app.App
	ctx gl.Context
}

func (s *mobileGLSurface) Context() gl.Context { return s.ctx }

func (s *mobileGLSurface) Present() error {
	s.app.Publish()
	return nil
}

// Release is a no-op, the activity owns the EGL context.
func (s *mobileGLSurface) Release() {}
