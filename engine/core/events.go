package core

import "sync"

type EventContext struct {
	Data struct {
		U32 [4]uint32
		F64 [2]float64
		C   [2]string
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EventCodeApplicationQuit SystemEventCode = 0x01

	// A graphics device was created.
	/* Context usage:
	 * string lifetime_id = data.C[0];
	 * string backend = data.C[1];
	 */
	EventCodeDeviceCreated SystemEventCode = 0x02

	// The graphics device was disposed.
	/* Context usage:
	 * string lifetime_id = data.C[0];
	 */
	EventCodeDeviceDisposed SystemEventCode = 0x03

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u32 width = data.U32[0];
	 * u32 height = data.U32[1];
	 */
	EventCodeResized SystemEventCode = 0x04

	// The host paused or resumed the application.
	EventCodePaused  SystemEventCode = 0x05
	EventCodeResumed SystemEventCode = 0x06

	MaxEventCode SystemEventCode = 0xFF
)

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// Events is a registry of listeners keyed by event code. It is safe for
// concurrent use; callbacks run on the goroutine that fires the event.
type Events struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEvents() *Events {
	return &Events{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/callback combos will not be registered again and will cause this to return FALSE.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback function to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func (e *Events) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range e.registered[code] {
		if r.listener == listener {
			LogWarn("event %d: listener already registered", code)
			return false
		}
	}
	e.registered[code] = append(e.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes the listener for code. It returns false when no such
// registration exists.
func (e *Events) Unregister(code SystemEventCode, listener interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := e.registered[code]
	for i, r := range events {
		if r.listener == listener {
			e.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * @param code The event code to fire.
 * @param sender The sender. Can be nil.
 * @param data The event data.
 * @returns TRUE if handled, otherwise FALSE.
 */
func (e *Events) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	e.mu.RLock()
	events := append([]*registeredEvent(nil), e.registered[code]...)
	e.mu.RUnlock()

	for _, r := range events {
		if r.callback(code, sender, r.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
