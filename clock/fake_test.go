package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresOnce(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := 0
	c.AfterFunc(100*time.Millisecond, func() { fired++ })

	c.Advance(99 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	c.Advance(time.Millisecond)
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if c.Pending() != 0 {
		t.Errorf("pending = %d, want 0", c.Pending())
	}
}

func TestFakeEveryRepeatsUntilStopped(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	ticks := 0
	tm := c.Every(time.Second, func() { ticks++ })

	c.Advance(3500 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("ticks = %d, want 3", ticks)
	}
	if !tm.Stop() {
		t.Error("Stop on active timer should report true")
	}
	if tm.Stop() {
		t.Error("second Stop should report false")
	}
	c.Advance(5 * time.Second)
	if ticks != 3 {
		t.Errorf("ticks after stop = %d, want 3", ticks)
	}
}

func TestFakeCallbackCanReschedule(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var order []string
	c.AfterFunc(time.Second, func() {
		order = append(order, "first")
		c.AfterFunc(time.Second, func() { order = append(order, "second") })
	})
	c.Advance(2 * time.Second)
	if len(order) != 2 || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
	if got := c.Now(); !got.Equal(time.Unix(2, 0)) {
		t.Errorf("Now = %v, want 2s", got)
	}
}

func TestFakeStopInsideCallback(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var other Timer
	otherFired := false
	c.AfterFunc(time.Second, func() { other.Stop() })
	other = c.AfterFunc(2*time.Second, func() { otherFired = true })
	c.Advance(3 * time.Second)
	if otherFired {
		t.Error("timer stopped by an earlier callback still fired")
	}
}
