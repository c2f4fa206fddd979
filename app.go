package main

import (
	"errors"
	"fmt"
	"sync"

	"tint/beep"
	"tint/capture"
	"tint/clipboard"
	"tint/clock"
	"tint/config"
	"tint/log"
	"tint/pill"
	"tint/task"
	"tint/theme"
	"tint/ticker"
	"tint/transcript"
)

const (
	micErrorText   = "Could not access microphone. Please grant permission and try again."
	noVoiceText    = "No voice detected"
	autoClosedText = "Recording closed after 30s without voice"
)

var errNothingReady = errors.New("no ready change to reveal")

type appDeps struct {
	resolver     theme.Resolver
	recorder     pill.Recorder
	clock        clock.Clock
	settings     config.Settings
	sink         EventSink
	recordingDir string
}

// App ties the capture state machine, the task queue and the status line
// together. Every method is safe to call from any goroutine.
type App struct {
	sink    EventSink
	queue   *task.Queue
	pill    *pill.Machine
	ticker  *ticker.Ticker
	anim    *transcript.Animator
	current *theme.Current
	clk     clock.Clock

	// statusMu orders reading the queue with updating the ticker, so the
	// last status applied reflects the latest queue.
	statusMu sync.Mutex

	mu         sync.Mutex
	submitted  int
	lastMode   pill.Mode
	canClose   func() bool
	silence    clock.Timer
	silenceGen int
}

func NewApp(d appDeps) *App {
	if d.clock == nil {
		d.clock = clock.Real()
	}
	if d.sink == nil {
		d.sink = nopSink{}
	}
	a := &App{sink: d.sink, clk: d.clock}

	a.current = theme.NewCurrent(theme.Default, func(t theme.Theme) {
		a.sink.ThemeApplied(t)
	})
	a.ticker = ticker.New(
		ticker.WithClock(d.clock),
		ticker.WithDuration(d.settings.TickerDuration),
		ticker.WithObserver(func(s ticker.State) { a.sink.StatusChanged(s) }),
	)
	a.anim = transcript.New(
		transcript.WithClock(d.clock),
		transcript.WithInterval(d.settings.WordInterval),
		transcript.WithMaxVisible(d.settings.MaxVisibleWords),
		transcript.WithText(d.settings.TranscriptText),
		transcript.WithObserver(func() { a.sink.TranscriptChanged(a.anim.Line()) }),
	)
	a.queue = task.New(d.resolver, task.WithObserver(a.onTaskEvent), task.WithNow(d.clock.Now))

	opts := []pill.Option{pill.WithClock(d.clock), pill.WithObserver(a.onPillChanged)}
	if d.recordingDir != "" {
		opts = append(opts, pill.WithRecordingDir(d.recordingDir))
	}
	a.pill = pill.New(a.queue, d.recorder, opts...)
	return a
}

func (a *App) onTaskEvent(e task.Event) {
	id := string(e.Task.ID)
	switch e.Type {
	case task.EventSubmitted:
		a.mu.Lock()
		a.submitted++
		a.mu.Unlock()
		log.TaskSubmitted(id, e.Task.Kind.String(), e.Task.Input)
	case task.EventReady:
		log.TaskReady(id, e.Task.Result.Name, e.Task.ReadyAt.Sub(e.Task.SubmittedAt))
		beep.PlayReady()
	case task.EventDiscarded:
		log.TaskDiscarded(id, e.Err)
	}

	a.sink.TaskEvent(e, a.refreshStatus())
}

// refreshStatus derives the status line from the queue as it is now.
func (a *App) refreshStatus() []task.Entry {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	entries := a.queue.List()
	a.ticker.Update(statusMessage(entries))
	return entries
}

// statusMessage picks the single line the ticker shows for the queue: the
// oldest ready change, else a working notice, else nothing.
func statusMessage(entries []task.Entry) string {
	working := false
	for _, e := range entries {
		if e.Status == task.StatusReady {
			return e.Label
		}
		working = true
	}
	if working {
		return task.LabelWorking
	}
	return ""
}

func (a *App) onPillChanged(s pill.State) {
	a.mu.Lock()
	prev := a.lastMode
	a.lastMode = s.Mode
	if prev != s.Mode {
		a.watchSilenceLocked(s.Mode == pill.ModeRecording)
	}
	a.mu.Unlock()

	if prev != s.Mode {
		a.anim.SetActive(s.Mode == pill.ModeRecording)
		if s.Mode == pill.ModeRecording {
			a.anim.SetPaused(false)
		}
	}
	a.sink.PillChanged(s)
}

// watchSilenceLocked starts or stops sampling the microphone level for the
// no-voice warning. Called with a.mu held.
func (a *App) watchSilenceLocked(on bool) {
	a.silenceGen++
	if a.silence != nil {
		a.silence.Stop()
		a.silence = nil
	}
	if !on {
		return
	}
	gen := a.silenceGen
	mon := capture.NewSilenceMonitor(a.canClose)
	a.silence = a.clk.Every(capture.SilenceTick, func() { a.silenceTick(gen, mon) })
}

func (a *App) silenceTick(gen int, mon *capture.SilenceMonitor) {
	a.mu.Lock()
	stale := gen != a.silenceGen
	a.mu.Unlock()
	if stale {
		return
	}

	switch mon.Tick(a.pill.Level() > capture.SpeechLevel) {
	case capture.SilenceWarn:
		log.Warn("no voice detected")
		a.sink.Notice(noVoiceText)
	case capture.SilenceClear:
		a.sink.Notice("")
	case capture.SilenceRepeat:
		beep.PlayError()
	case capture.SilenceAutoClose:
		log.Warn("recording auto-closed after silence")
		a.pill.Cancel()
		beep.PlayEnd()
		a.sink.Notice(autoClosedText)
	}
}

func (a *App) OpenText() error {
	return a.pill.OpenText()
}

func (a *App) OpenVoice() error {
	return a.OpenVoiceFrom(nil)
}

// OpenVoiceFrom starts a recording whose silence auto-close is gated by
// canClose. Hold-to-talk passes a check that is false while the key is held.
func (a *App) OpenVoiceFrom(canClose func() bool) error {
	a.mu.Lock()
	a.canClose = canClose
	a.mu.Unlock()

	err := a.pill.OpenVoice()
	switch {
	case err == nil:
		beep.PlayStart()
	case errors.Is(err, capture.ErrResourceUnavailable):
		log.Warnf("microphone unavailable: %v", err)
		beep.PlayError()
		a.sink.Notice(micErrorText)
	}
	return err
}

func (a *App) SetText(text string) error {
	return a.pill.SetText(text)
}

func (a *App) Submit() (task.ID, error) {
	voice := a.pill.State().Mode == pill.ModeRecording
	id, err := a.pill.Submit()
	if voice {
		beep.PlayEnd()
	}
	if err != nil && !errors.Is(err, pill.ErrEmptyInput) {
		log.Errorf("submit: %v", err)
		a.sink.Notice(fmt.Sprintf("Error: %v", err))
	}
	return id, err
}

// SubmitText opens, fills and submits a text input in one step.
func (a *App) SubmitText(text string) (task.ID, error) {
	if err := a.OpenText(); err != nil {
		return "", err
	}
	if err := a.SetText(text); err != nil {
		return "", err
	}
	id, err := a.Submit()
	if err != nil {
		a.Cancel()
	}
	return id, err
}

func (a *App) Cancel() {
	a.pill.Cancel()
}

// CaptureFailed ends a recording after the device reported an error.
func (a *App) CaptureFailed(err error) {
	a.pill.Fail(err)
	beep.PlayError()
	a.sink.Notice(micErrorText)
}

func (a *App) TogglePause() {
	a.anim.SetPaused(!a.anim.Paused())
}

// Reveal applies a ready task's theme and removes it from the queue.
func (a *App) Reveal(id task.ID) (theme.Theme, bool) {
	t, ok := a.queue.Reveal(id)
	if !ok {
		return theme.Theme{}, false
	}
	log.ThemeApplied(string(id), t.Name)
	a.current.Apply(t)
	return t, true
}

// RevealIndex reveals the n-th listed task, counting from 1.
func (a *App) RevealIndex(n int) (theme.Theme, bool) {
	entries := a.queue.List()
	if n < 1 || n > len(entries) {
		return theme.Theme{}, false
	}
	return a.Reveal(entries[n-1].ID)
}

func (a *App) RevealFirst() (theme.Theme, error) {
	id, ok := a.queue.FirstReady()
	if !ok {
		return theme.Theme{}, errNothingReady
	}
	t, ok := a.Reveal(id)
	if !ok {
		return theme.Theme{}, errNothingReady
	}
	return t, nil
}

func (a *App) CopyTheme() error {
	t := a.current.Get()
	if err := clipboard.Copy(t.CSS()); err != nil {
		return err
	}
	a.sink.Notice("Copied " + t.Name + " palette as CSS variables")
	return nil
}

func (a *App) Theme() theme.Theme    { return a.current.Get() }
func (a *App) Entries() []task.Entry { return a.queue.List() }
func (a *App) Pill() pill.State      { return a.pill.State() }
func (a *App) Status() ticker.State  { return a.ticker.State() }
func (a *App) Transcript() string    { return a.anim.Line() }
func (a *App) Level() float64        { return a.pill.Level() }
func (a *App) WaitIdle()             { a.queue.Wait() }

func (a *App) Submitted() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitted
}

// Close abandons any open input and outstanding tasks.
func (a *App) Close() {
	a.pill.Cancel()
	a.anim.SetActive(false)
	a.queue.Close()
	a.ticker.Stop()
}
