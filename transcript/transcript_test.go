package transcript

import (
	"strings"
	"testing"
	"time"

	"tint/clock"
)

func newAnimator(opts ...Option) (*Animator, *clock.Fake) {
	clk := clock.NewFake(time.Unix(0, 0))
	return New(append([]Option{WithClock(clk)}, opts...)...), clk
}

func TestSlidingWindow(t *testing.T) {
	a, clk := newAnimator(WithText("one two three four five"), WithMaxVisible(3))
	a.SetActive(true)
	clk.Advance(5 * DefaultInterval)

	if got := strings.Join(a.Visible(), " "); got != "three four five" {
		t.Errorf("Visible = %q, want %q", got, "three four five")
	}
}

func TestRevealOneWordPerTick(t *testing.T) {
	a, clk := newAnimator(WithText("a b c d"))
	a.SetActive(true)
	for want := 1; want <= 4; want++ {
		clk.Advance(DefaultInterval)
		if got := a.Index(); got != want {
			t.Fatalf("after %d ticks Index = %d", want, got)
		}
	}
	clk.Advance(10 * DefaultInterval)
	if got := a.Index(); got != 4 {
		t.Errorf("Index past end = %d, want 4", got)
	}
	if clk.Pending() != 0 {
		t.Error("timer kept running after the last word")
	}
	if got := a.Line(); got != "a b c d" {
		t.Errorf("Line = %q", got)
	}
}

func TestDeactivateResets(t *testing.T) {
	a, clk := newAnimator()
	a.SetActive(true)
	clk.Advance(3 * DefaultInterval)
	a.SetActive(false)

	if a.Index() != 0 || clk.Pending() != 0 {
		t.Fatalf("Index = %d, pending timers = %d", a.Index(), clk.Pending())
	}
	clk.Advance(3 * DefaultInterval)
	if a.Index() != 0 {
		t.Error("advanced while inactive")
	}

	a.SetActive(true)
	if a.Index() != 0 {
		t.Error("reactivation did not restart from the first word")
	}
	clk.Advance(DefaultInterval)
	if a.Index() != 1 {
		t.Errorf("Index = %d, want 1", a.Index())
	}
}

func TestPauseHoldsIndex(t *testing.T) {
	a, clk := newAnimator()
	a.SetActive(true)
	clk.Advance(2 * DefaultInterval)
	a.SetPaused(true)
	clk.Advance(5 * DefaultInterval)
	if a.Index() != 2 {
		t.Fatalf("Index while paused = %d, want 2", a.Index())
	}
	a.SetPaused(false)
	clk.Advance(DefaultInterval)
	if a.Index() != 3 {
		t.Errorf("Index after resume = %d, want 3", a.Index())
	}
}

func TestPlaceholder(t *testing.T) {
	a, _ := newAnimator()
	if got := a.Line(); got != Placeholder {
		t.Errorf("Line = %q, want placeholder", got)
	}
	a.SetActive(true)
	if got := a.Line(); got != Placeholder {
		t.Errorf("Line before first tick = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	a, clk := newAnimator(WithText("   "), WithMaxVisible(0), WithInterval(0))
	a.SetActive(true)
	clk.Advance(30 * DefaultInterval)
	words := strings.Fields(DefaultText)
	if got := a.Visible(); len(got) != DefaultMaxVisible || got[len(got)-1] != words[len(words)-1] {
		t.Errorf("Visible = %q", got)
	}
}
