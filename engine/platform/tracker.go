package platform

import "github.com/spaghettifunk/helloquad/engine/renderer/metadata"

// surfaceTracker turns visibility, focus and size notifications into surface
// callbacks. A surface is reported created once it is visible and has a
// non-zero size.
type surfaceTracker struct {
	callbacks     SurfaceCallbacks
	source        metadata.SwapchainSource
	visible       bool
	created       bool
	width, height uint32
}

func newSurfaceTracker(callbacks SurfaceCallbacks) *surfaceTracker {
	return &surfaceTracker{callbacks: callbacks}
}

func (t *surfaceTracker) show(source metadata.SwapchainSource) {
	t.source = source
	t.visible = true
	t.maybeCreate()
}

func (t *surfaceTracker) hide() {
	t.visible = false
	if t.created {
		t.created = false
		t.callbacks.SurfaceDestroyed()
	}
}

func (t *surfaceTracker) resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if width == t.width && height == t.height && t.created {
		return
	}
	t.width, t.height = width, height
	if t.created {
		t.callbacks.SurfaceChanged(width, height)
		return
	}
	t.maybeCreate()
}

func (t *surfaceTracker) focus(focused bool) {
	if focused {
		t.callbacks.Resume()
	} else {
		t.callbacks.Pause()
	}
}

func (t *surfaceTracker) maybeCreate() {
	if !t.visible || t.created || t.width == 0 || t.height == 0 {
		return
	}
	t.created = true
	t.callbacks.SurfaceCreated(t.source, t.width, t.height)
}
