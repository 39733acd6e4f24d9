package surface

import (
	"sync"

	"github.com/spaghettifunk/helloquad/engine/containers"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

type messageKind uint8

const (
	msgCreated messageKind = iota
	msgChanged
	msgDestroyed
	msgPause
	msgResume
	msgDisable
)

func (k messageKind) String() string {
	switch k {
	case msgCreated:
		return "created"
	case msgChanged:
		return "changed"
	case msgDestroyed:
		return "destroyed"
	case msgPause:
		return "pause"
	case msgResume:
		return "resume"
	default:
		return "disable"
	}
}

type message struct {
	kind   messageKind
	source metadata.SwapchainSource
	width  uint32
	height uint32
}

// mailbox carries lifecycle messages from the platform goroutine to the
// render goroutine. post never blocks.
type mailbox struct {
	mu    sync.Mutex
	queue *containers.RingQueue[message]
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{
		queue: containers.NewRingQueue[message](8),
		wake:  make(chan struct{}, 1),
	}
}

func (m *mailbox) post(msg message) {
	m.mu.Lock()
	m.queue.Enqueue(msg)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// drain appends every queued message to dst.
func (m *mailbox) drain(dst []message) []message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for !m.queue.IsEmpty() {
		msg, _ := m.queue.Dequeue()
		dst = append(dst, msg)
	}
	return dst
}
