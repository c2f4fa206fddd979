// Package pill is the input capture state machine: idle, composing text, or
// recording voice. Exactly one mode is active at a time.
package pill

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tint/capture"
	"tint/clock"
	"tint/log"
	"tint/task"
)

var (
	ErrBusy              = errors.New("another input is already open")
	ErrEmptyInput        = errors.New("input is empty")
	ErrInvalidTransition = errors.New("invalid transition")
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeComposing
	ModeRecording
)

func (m Mode) String() string {
	switch m {
	case ModeComposing:
		return "composing"
	case ModeRecording:
		return "recording"
	default:
		return "idle"
	}
}

type State struct {
	Mode    Mode
	Text    string // ModeComposing only
	Elapsed int    // whole seconds, ModeRecording only
}

type Submitter interface {
	Submit(input string, kind task.Kind) task.ID
}

type Recorder interface {
	Acquire() (*capture.Session, error)
}

type Machine struct {
	queue        Submitter
	rec          Recorder
	clk          clock.Clock
	observer     func(State)
	recordingDir string

	mu      sync.Mutex
	mode    Mode
	text    string
	session *capture.Session
	elapsed int
	tick    clock.Timer
	gen     int
	seq     uint64

	deliverMu sync.Mutex
	delivered uint64
}

// stamped is a snapshot with the order in which it was taken.
type stamped struct {
	State
	seq uint64
}

type Option func(*Machine)

func WithClock(c clock.Clock) Option {
	return func(m *Machine) { m.clk = c }
}

// WithObserver registers fn to receive state changes, called without the
// machine lock held. Calls never overlap, and a snapshot older than one
// already delivered is dropped, so the last state seen is the current one.
func WithObserver(fn func(State)) Option {
	return func(m *Machine) { m.observer = fn }
}

// WithRecordingDir keeps finalized recordings in dir.
func WithRecordingDir(dir string) Option {
	return func(m *Machine) { m.recordingDir = dir }
}

func New(queue Submitter, rec Recorder, opts ...Option) *Machine {
	m := &Machine{queue: queue, rec: rec, clk: clock.Real()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// stamp takes a snapshot for the observer. Called with m.mu held.
func (m *Machine) stamp() stamped {
	m.seq++
	return stamped{State: m.snapshot(), seq: m.seq}
}

func (m *Machine) snapshot() State {
	s := State{Mode: m.mode}
	switch m.mode {
	case ModeComposing:
		s.Text = m.text
	case ModeRecording:
		s.Elapsed = m.elapsed
	}
	return s
}

// Level is the live microphone level while recording, else 0.
func (m *Machine) Level() float64 {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess == nil {
		return 0
	}
	return sess.Level()
}

func (m *Machine) OpenText() error {
	m.mu.Lock()
	if m.mode != ModeIdle {
		m.mu.Unlock()
		return ErrBusy
	}
	m.mode = ModeComposing
	m.text = ""
	s := m.stamp()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// OpenVoice acquires the microphone and starts the elapsed counter. On
// failure the machine stays idle and the error wraps
// capture.ErrResourceUnavailable.
func (m *Machine) OpenVoice() error {
	m.mu.Lock()
	if m.mode != ModeIdle {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.rec == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: no recorder", capture.ErrResourceUnavailable)
	}
	sess, err := m.rec.Acquire()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.mode = ModeRecording
	m.session = sess
	m.elapsed = 0
	m.gen++
	gen := m.gen
	m.tick = m.clk.Every(time.Second, func() { m.onTick(gen) })
	s := m.stamp()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

func (m *Machine) onTick(gen int) {
	m.mu.Lock()
	if m.gen != gen || m.mode != ModeRecording {
		m.mu.Unlock()
		return
	}
	m.elapsed++
	s := m.stamp()
	m.mu.Unlock()

	m.notify(s)
}

// SetText replaces the composing buffer.
func (m *Machine) SetText(text string) error {
	m.mu.Lock()
	if m.mode != ModeComposing {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.text = text
	s := m.stamp()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// Submit hands the current input to the queue and returns to idle. Blank
// text is rejected and leaves the buffer in place. A recording is released
// before the mode changes, whether or not finalizing it succeeds.
func (m *Machine) Submit() (task.ID, error) {
	m.mu.Lock()
	switch m.mode {
	case ModeComposing:
		input := strings.TrimSpace(m.text)
		if input == "" {
			m.mu.Unlock()
			return "", ErrEmptyInput
		}
		m.mode = ModeIdle
		m.text = ""
		s := m.stamp()
		m.mu.Unlock()

		id := m.queue.Submit(input, task.KindText)
		m.notify(s)
		return id, nil

	case ModeRecording:
		elapsed := m.elapsed
		artifact, err := m.leaveRecording(true)
		s := m.stamp()
		m.mu.Unlock()

		if err != nil {
			m.notify(s)
			return "", err
		}
		input := VoiceLabel(elapsed)
		if m.recordingDir != "" {
			if path, err := artifact.Save(m.recordingDir); err != nil {
				log.Warnf("save recording: %v", err)
			} else {
				input += " saved to " + path
			}
		}
		log.Recording(artifact.Duration, len(artifact.Data), artifact.Format)
		id := m.queue.Submit(input, task.KindVoice)
		m.notify(s)
		return id, nil

	default:
		m.mu.Unlock()
		return "", ErrInvalidTransition
	}
}

// Cancel discards the open input. Nothing is submitted. Cancel while idle is
// a no-op.
func (m *Machine) Cancel() {
	m.mu.Lock()
	switch m.mode {
	case ModeIdle:
		m.mu.Unlock()
		return
	case ModeComposing:
		m.mode = ModeIdle
		m.text = ""
	case ModeRecording:
		m.leaveRecording(false)
	}
	s := m.stamp()
	m.mu.Unlock()

	m.notify(s)
}

// Fail ends a recording after an external capture error.
func (m *Machine) Fail(err error) {
	m.mu.Lock()
	if m.mode != ModeRecording {
		m.mu.Unlock()
		return
	}
	m.leaveRecording(false)
	s := m.stamp()
	m.mu.Unlock()

	log.Warnf("recording failed: %v", err)
	m.notify(s)
}

// leaveRecording stops the counter and releases the session, then moves to
// idle. Called with m.mu held.
func (m *Machine) leaveRecording(keep bool) (capture.Artifact, error) {
	m.gen++
	if m.tick != nil {
		m.tick.Stop()
		m.tick = nil
	}
	sess := m.session
	m.session = nil

	var artifact capture.Artifact
	var err error
	if keep {
		artifact, err = sess.Stop()
	} else {
		sess.Abort()
	}
	m.mode = ModeIdle
	m.elapsed = 0
	return artifact, err
}

func (m *Machine) notify(s stamped) {
	if m.observer == nil {
		return
	}
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()
	if s.seq <= m.delivered {
		return
	}
	m.delivered = s.seq
	m.observer(s.State)
}

// VoiceLabel is the task input for a recording of the given length.
func VoiceLabel(seconds int) string {
	return fmt.Sprintf("Voice recording (%ds)", seconds)
}

// FormatElapsed renders a recording timer as m:ss.
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
