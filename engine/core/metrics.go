package core

import (
	"sync"

	"github.com/spaghettifunk/helloquad/engine/containers"
)

// AvgCount is the number of frames the frame time average is taken over.
const AvgCount = 30

type Metrics struct {
	mu                 sync.RWMutex
	samples            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		samples: containers.NewRingQueue[float64](AvgCount + 1),
	}
}

// Update records one frame that took frameElapsedTime seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	m.samples.Enqueue(frameMS)
	if m.samples.Len() > AvgCount {
		_, _ = m.samples.Dequeue()
	}
	if m.samples.Len() == AvgCount {
		sum := 0.0
		m.samples.Each(func(ms float64) { sum += ms })
		m.msAvg = sum / float64(AvgCount)
	}

	// Calculate frames per second.
	m.frames++
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS >= 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
}

func (m *Metrics) FPS() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fps, m.msAvg
}
