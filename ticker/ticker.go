// Package ticker drives the single-line status indicator. A new message
// slides in over a short transition; only one transition runs at a time and
// newer messages replace it rather than queueing behind it.
package ticker

import (
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"tint/clock"
)

const DefaultDuration = 250 * time.Millisecond

type State struct {
	Displayed string
	Pending   string // valid only while InFlight
	InFlight  bool
	Announced string  // latest requested message
	Progress  float64 // 0..1 through the current transition
}

type Ticker struct {
	clk      clock.Clock
	duration time.Duration
	observer func(State)

	mu        sync.Mutex
	displayed string
	pending   string
	inFlight  bool
	announced string
	startedAt time.Time
	timer     clock.Timer
	gen       int
	seq       uint64

	deliverMu sync.Mutex
	delivered uint64
}

// stamped is a state with the order in which it was taken.
type stamped struct {
	State
	seq uint64
}

type Option func(*Ticker)

func WithClock(c clock.Clock) Option {
	return func(t *Ticker) { t.clk = c }
}

func WithDuration(d time.Duration) Option {
	return func(t *Ticker) {
		if d > 0 {
			t.duration = d
		}
	}
}

// WithObserver registers fn to receive state changes. It is called without
// the ticker lock held, never concurrently, and never with a state older than
// one it has already seen.
func WithObserver(fn func(State)) Option {
	return func(t *Ticker) { t.observer = fn }
}

func New(opts ...Option) *Ticker {
	t := &Ticker{clk: clock.Real(), duration: DefaultDuration}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update requests msg be shown.
func (t *Ticker) Update(msg string) {
	t.mu.Lock()
	t.announced = msg
	switch {
	case !t.inFlight && msg == t.displayed:
		t.mu.Unlock()
		return
	case t.inFlight && msg == t.pending:
		t.mu.Unlock()
		return
	case t.inFlight && msg == t.displayed:
		t.cancelLocked()
	default:
		t.cancelLocked()
		t.pending = msg
		t.inFlight = true
		t.startedAt = t.clk.Now()
		gen := t.gen
		t.timer = t.clk.AfterFunc(t.duration, func() { t.settle(gen) })
	}
	s := t.stampLocked()
	t.mu.Unlock()

	t.notify(s)
}

func (t *Ticker) settle(gen int) {
	t.mu.Lock()
	if gen != t.gen || !t.inFlight {
		t.mu.Unlock()
		return
	}
	t.displayed = t.pending
	t.pending = ""
	t.inFlight = false
	t.timer = nil
	t.gen++
	s := t.stampLocked()
	t.mu.Unlock()

	t.notify(s)
}

func (t *Ticker) cancelLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = ""
	t.inFlight = false
}

// Stop cancels any running transition. The displayed message stays.
func (t *Ticker) Stop() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

func (t *Ticker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Ticker) stampLocked() stamped {
	t.seq++
	return stamped{State: t.stateLocked(), seq: t.seq}
}

func (t *Ticker) stateLocked() State {
	s := State{
		Displayed: t.displayed,
		Pending:   t.pending,
		InFlight:  t.inFlight,
		Announced: t.announced,
	}
	if t.inFlight {
		p := float64(t.clk.Now().Sub(t.startedAt)) / float64(t.duration)
		s.Progress = min(max(p, 0), 1)
	}
	return s
}

func (t *Ticker) notify(s stamped) {
	if t.observer == nil {
		return
	}
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	if s.seq <= t.delivered {
		return
	}
	t.delivered = s.seq
	t.observer(s.State)
}

// Fit truncates s to width terminal cells.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
