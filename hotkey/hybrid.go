package hotkey

import (
	"sync"
	"sync/atomic"
	"time"

	"tint/clock"
)

type Mode string

const (
	ModePTT    Mode = "ptt"
	ModeToggle Mode = "toggle"
)

// Hybrid turns one key combination into hold-to-talk and tap-to-toggle.
// Every press starts a recording immediately; holding past longPress means
// release stops it, a shorter tap leaves it running until the next press is
// released.
type Hybrid struct {
	clk       clock.Clock
	longPress time.Duration

	startCh chan struct{}
	stopCh  chan struct{}
	held    chan struct{}
	done    chan struct{}
	once    sync.Once
	toggle  atomic.Bool
}

type Option func(*Hybrid)

// WithClock times the long press on c.
func WithClock(c clock.Clock) Option {
	return func(h *Hybrid) { h.clk = c }
}

func NewHybrid(hk Hotkey, longPress time.Duration, opts ...Option) *Hybrid {
	h := &Hybrid{
		clk:       clock.Real(),
		longPress: longPress,
		startCh:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}, 1),
		held:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(h)
	}
	go h.run(hk)
	return h
}

// Start fires when a recording should begin.
func (h *Hybrid) Start() <-chan struct{} { return h.startCh }

// Stop fires when the current recording should end, in either mode.
func (h *Hybrid) Stop() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current recording was started by a tap.
func (h *Hybrid) IsToggle() bool { return h.toggle.Load() }

func (h *Hybrid) Mode() Mode {
	if h.IsToggle() {
		return ModeToggle
	}
	return ModePTT
}

func (h *Hybrid) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hybrid) wait(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-h.done:
		return false
	}
}

// armHold clears any hold left over from an earlier press and starts timing
// this one.
func (h *Hybrid) armHold() clock.Timer {
	select {
	case <-h.held:
	default:
	}
	return h.clk.AfterFunc(h.longPress, func() { signal(h.held) })
}

func (h *Hybrid) run(hk Hotkey) {
	for {
		if !h.wait(hk.Keydown()) {
			return
		}
		h.toggle.Store(false)
		signal(h.startCh)

		hold := h.armHold()
		select {
		case <-h.held:
			if !h.wait(hk.Keyup()) {
				return
			}
		case <-hk.Keyup():
			// a release racing the timer counts as a hold once it has fired
			if hold.Stop() {
				h.toggle.Store(true)
				// the next press stops on its release, short or long
				if !h.wait(hk.Keydown()) || !h.wait(hk.Keyup()) {
					return
				}
			}
		case <-h.done:
			hold.Stop()
			return
		}
		signal(h.stopCh)
	}
}
