package core

import "testing"

func TestEventsFireOrderAndHandled(t *testing.T) {
	ev := NewEvents()
	var calls []string

	first, second := "first", "second"
	ev.Register(EventCodeResized, first, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, listener.(string))
		return data.Data.U32[0] == 0
	})
	ev.Register(EventCodeResized, second, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, listener.(string))
		return true
	})

	var ctx EventContext
	ctx.Data.U32[0] = 640
	if !ev.Fire(EventCodeResized, nil, ctx) {
		t.Fatal("Fire() = false, want handled")
	}
	if len(calls) != 2 || calls[0] != first || calls[1] != second {
		t.Fatalf("listeners called %v, want [first second]", calls)
	}

	calls = nil
	ctx.Data.U32[0] = 0
	ev.Fire(EventCodeResized, nil, ctx)
	if len(calls) != 1 {
		t.Fatalf("handled event reached %d listeners, want 1", len(calls))
	}
}

func TestEventsRegisterUnregister(t *testing.T) {
	ev := NewEvents()
	noop := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return true }

	if !ev.Register(EventCodeApplicationQuit, "engine", noop) {
		t.Fatal("first Register() = false")
	}
	if ev.Register(EventCodeApplicationQuit, "engine", noop) {
		t.Fatal("duplicate Register() = true")
	}
	if ev.Register(EventCodeApplicationQuit, "other", nil) {
		t.Fatal("Register() with nil callback = true")
	}
	if !ev.Unregister(EventCodeApplicationQuit, "engine") {
		t.Fatal("Unregister() = false")
	}
	if ev.Unregister(EventCodeApplicationQuit, "engine") {
		t.Fatal("second Unregister() = true")
	}
	if ev.Fire(EventCodeApplicationQuit, nil, EventContext{}) {
		t.Fatal("Fire() with no listeners = true")
	}
}
