package ticker

import (
	"sync"
	"testing"
	"time"

	"tint/clock"
)

func newTicker(t *testing.T) (*Ticker, *clock.Fake, func() []string) {
	t.Helper()
	clk := clock.NewFake(time.Unix(0, 0))
	var mu sync.Mutex
	var settled []string
	tk := New(WithClock(clk), WithObserver(func(s State) {
		if s.InFlight {
			return
		}
		mu.Lock()
		settled = append(settled, s.Displayed)
		mu.Unlock()
	}))
	return tk, clk, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), settled...)
	}
}

func TestUpdateSameAsDisplayedIsNoop(t *testing.T) {
	tk, clk, _ := newTicker(t)
	tk.Update("")
	if clk.Pending() != 0 || tk.State().InFlight {
		t.Fatal("update to the displayed message started a transition")
	}
}

func TestTransitionSettles(t *testing.T) {
	tk, clk, settled := newTicker(t)
	tk.Update("Working in background…")

	s := tk.State()
	if !s.InFlight || s.Pending != "Working in background…" || s.Displayed != "" {
		t.Fatalf("state = %+v", s)
	}
	if s.Announced != "Working in background…" {
		t.Errorf("Announced = %q before settle", s.Announced)
	}

	clk.Advance(125 * time.Millisecond)
	if p := tk.State().Progress; p != 0.5 {
		t.Errorf("Progress = %v, want 0.5", p)
	}
	clk.Advance(124 * time.Millisecond)
	if !tk.State().InFlight {
		t.Fatal("settled early")
	}
	clk.Advance(time.Millisecond)
	s = tk.State()
	if s.InFlight || s.Displayed != "Working in background…" || s.Progress != 0 {
		t.Errorf("state after settle = %+v", s)
	}
	if got := settled(); len(got) != 1 || got[0] != "Working in background…" {
		t.Errorf("settled = %q", got)
	}
}

func TestRapidUpdatesSettleOnLast(t *testing.T) {
	tk, clk, settled := newTicker(t)
	tk.Update("A")
	clk.Advance(100 * time.Millisecond)
	tk.Update("B")
	clk.Advance(100 * time.Millisecond)
	tk.Update("C")

	if clk.Pending() != 1 {
		t.Fatalf("%d transitions in flight, want 1", clk.Pending())
	}
	s := tk.State()
	if s.Displayed != "" || s.Pending != "C" || s.Announced != "C" {
		t.Fatalf("state = %+v", s)
	}
	clk.Advance(time.Second)
	if got := settled(); len(got) != 1 || got[0] != "C" {
		t.Errorf("settled = %q, want only C", got)
	}
}

func TestUpdateBackToDisplayedCancels(t *testing.T) {
	tk, clk, settled := newTicker(t)
	tk.Update("A")
	clk.Advance(time.Second)
	tk.Update("B")
	tk.Update("A")

	if clk.Pending() != 0 {
		t.Fatal("transition still scheduled")
	}
	s := tk.State()
	if s.InFlight || s.Displayed != "A" || s.Announced != "A" {
		t.Errorf("state = %+v", s)
	}
	clk.Advance(time.Second)
	if got := settled(); len(got) != 2 || got[1] != "A" {
		t.Errorf("settled = %q", got)
	}
}

func TestUpdateEqualToPendingKeepsRunning(t *testing.T) {
	tk, clk, _ := newTicker(t)
	tk.Update("A")
	clk.Advance(200 * time.Millisecond)
	tk.Update("A")
	clk.Advance(50 * time.Millisecond)
	if s := tk.State(); s.InFlight || s.Displayed != "A" {
		t.Errorf("transition restarted: %+v", s)
	}
}

func TestStopCancelsTransition(t *testing.T) {
	tk, clk, settled := newTicker(t)
	tk.Update("A")
	tk.Stop()
	clk.Advance(time.Second)
	if clk.Pending() != 0 || len(settled()) != 0 || tk.State().Displayed != "" {
		t.Errorf("transition survived Stop: %+v", tk.State())
	}
}

func TestCustomDuration(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	tk := New(WithClock(clk), WithDuration(time.Second))
	tk.Update("A")
	clk.Advance(DefaultDuration)
	if !tk.State().InFlight {
		t.Error("settled at the default duration")
	}
	clk.Advance(time.Second)
	if tk.State().Displayed != "A" {
		t.Error("did not settle")
	}
}

func TestFit(t *testing.T) {
	for _, tt := range []struct {
		in    string
		width int
		want  string
	}{
		{"Change ready (text)", 40, "Change ready (text)"},
		{"Change ready (text)", 8, "Change …"},
		{"色が変わりました", 6, "色が…"},
		{"anything", 0, ""},
	} {
		if got := Fit(tt.in, tt.width); got != tt.want {
			t.Errorf("Fit(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestSettleRacingUpdateEndsInFlight(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	var mu sync.Mutex
	var last State
	held, release := make(chan struct{}), make(chan struct{})
	holding := true
	tk := New(WithClock(clk), WithObserver(func(s State) {
		mu.Lock()
		last = s
		hold := holding && !s.InFlight && s.Displayed == "a"
		if hold {
			holding = false
		}
		mu.Unlock()
		if hold {
			close(held)
			<-release
		}
	}))

	tk.Update("a")
	settled := make(chan struct{})
	go func() {
		clk.Advance(DefaultDuration)
		close(settled)
	}()
	<-held

	updated := make(chan struct{})
	go func() {
		tk.Update("b")
		close(updated)
	}()
	deadline := time.Now().Add(time.Second)
	for tk.State().Pending != "b" {
		if time.Now().After(deadline) {
			t.Fatal("update never started")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-settled
	<-updated

	mu.Lock()
	defer mu.Unlock()
	if !last.InFlight || last.Pending != "b" {
		t.Errorf("last observed %+v, want the transition to b in flight", last)
	}
}
