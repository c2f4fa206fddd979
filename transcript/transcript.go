// Package transcript animates a scripted transcription while recording,
// revealing one word per tick and keeping only the newest words in view.
package transcript

import (
	"strings"
	"sync"
	"time"

	"tint/clock"
)

const (
	DefaultText       = "Once upon a time we dreamed of effortless creation. Now ideas flow naturally, word by word, shaping delightful experiences as if by magic."
	DefaultInterval   = 275 * time.Millisecond
	DefaultMaxVisible = 14
	Placeholder       = "Listening…"
)

type Animator struct {
	clk        clock.Clock
	interval   time.Duration
	maxVisible int
	words      []string
	observer   func()

	mu     sync.Mutex
	active bool
	paused bool
	index  int
	timer  clock.Timer
	gen    int
}

type Option func(*Animator)

func WithClock(c clock.Clock) Option {
	return func(a *Animator) { a.clk = c }
}

// WithText replaces the scripted sentence. Blank text keeps the default.
func WithText(text string) Option {
	return func(a *Animator) {
		if words := strings.Fields(text); len(words) > 0 {
			a.words = words
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(a *Animator) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithMaxVisible(n int) Option {
	return func(a *Animator) {
		if n > 0 {
			a.maxVisible = n
		}
	}
}

// WithObserver is called after each revealed word and on every reset.
func WithObserver(fn func()) Option {
	return func(a *Animator) { a.observer = fn }
}

func New(opts ...Option) *Animator {
	a := &Animator{
		clk:        clock.Real(),
		interval:   DefaultInterval,
		maxVisible: DefaultMaxVisible,
		words:      strings.Fields(DefaultText),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetActive starts or stops the animation. Both directions reset to the
// first word.
func (a *Animator) SetActive(active bool) {
	a.mu.Lock()
	if a.active == active {
		a.mu.Unlock()
		return
	}
	a.active = active
	a.index = 0
	a.reschedule()
	a.mu.Unlock()

	a.notify()
}

// SetPaused holds the current word without resetting.
func (a *Animator) SetPaused(paused bool) {
	a.mu.Lock()
	if a.paused == paused {
		a.mu.Unlock()
		return
	}
	a.paused = paused
	a.reschedule()
	a.mu.Unlock()
}

// reschedule stops the running timer and starts a new one if the animation
// should advance. Called with a.mu held.
func (a *Animator) reschedule() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if !a.active || a.paused || a.index >= len(a.words) {
		return
	}
	gen := a.gen
	a.timer = a.clk.Every(a.interval, func() { a.advance(gen) })
}

func (a *Animator) advance(gen int) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	if a.index < len(a.words) {
		a.index++
	}
	if a.index >= len(a.words) && a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	a.notify()
}

func (a *Animator) Index() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index
}

func (a *Animator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *Animator) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// Visible returns the newest revealed words, oldest first.
func (a *Animator) Visible() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := max(0, a.index-a.maxVisible)
	return append([]string(nil), a.words[start:a.index]...)
}

// Line is the rendered transcript, or the placeholder before the first word.
func (a *Animator) Line() string {
	words := a.Visible()
	if len(words) == 0 {
		return Placeholder
	}
	return strings.Join(words, " ")
}

func (a *Animator) notify() {
	if a.observer != nil {
		a.observer()
	}
}
