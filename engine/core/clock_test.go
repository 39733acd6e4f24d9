package core

import (
	"testing"
	"time"
)

type fakeTime struct {
	now time.Duration
}

func (f *fakeTime) Now() time.Duration { return f.now }

func TestClock(t *testing.T) {
	ft := &fakeTime{now: 5 * time.Second}
	c := NewClockWithSource(ft.Now)

	c.Update()
	if c.Elapsed() != 0 {
		t.Fatalf("Elapsed() before Start = %v, want 0", c.Elapsed())
	}

	c.Start()
	ft.now += 1500 * time.Millisecond
	c.Update()
	if c.Elapsed() != 1.5 {
		t.Fatalf("Elapsed() = %v, want 1.5", c.Elapsed())
	}

	c.Stop()
	ft.now += time.Second
	c.Update()
	if c.Elapsed() != 1.5 {
		t.Fatalf("Elapsed() after Stop = %v, want 1.5", c.Elapsed())
	}
}

func TestNewClockIsMonotonic(t *testing.T) {
	c := NewClock()
	c.Start()
	var last float64
	for i := 0; i < 100; i++ {
		c.Update()
		if c.Elapsed() < last {
			t.Fatalf("Elapsed() went backwards: %v < %v", c.Elapsed(), last)
		}
		last = c.Elapsed()
	}
}
