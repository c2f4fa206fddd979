package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tint/audio"
	"tint/beep"
	"tint/capture"
	"tint/config"
	"tint/hotkey"
	"tint/log"
	"tint/pill"
	"tint/task"
	"tint/theme"
	"tint/ticker"
)

// lineSink prints one line per observable change so a driver script can
// assert on stdout.
type lineSink struct {
	mu       sync.Mutex
	w        io.Writer
	mode     pill.Mode
	lastShow string
}

func (s *lineSink) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format+"\n", args...)
}

func (s *lineSink) PillChanged(st pill.State) {
	s.mu.Lock()
	changed := st.Mode != s.mode
	s.mode = st.Mode
	s.mu.Unlock()
	if changed {
		s.printf("mode %s", st.Mode)
	}
}

func (s *lineSink) TaskEvent(e task.Event, _ []task.Entry) {
	s.printf("task %s %s %s", e.Type, e.Task.Kind, e.Task.ID)
}

// StatusChanged reports settled messages only.
func (s *lineSink) StatusChanged(st ticker.State) {
	if st.InFlight {
		return
	}
	s.mu.Lock()
	dup := st.Displayed == s.lastShow
	s.lastShow = st.Displayed
	s.mu.Unlock()
	if !dup {
		s.printf("status %q", st.Displayed)
	}
}

func (s *lineSink) TranscriptChanged(string) {}

func (s *lineSink) ThemeApplied(t theme.Theme) { s.printf("theme %s", t.Name) }

func (s *lineSink) Notice(text string) { s.printf("notice %s", text) }

// runTestMode drives the app from stdin commands instead of a terminal UI.
// Voice input replays wavPath, or a generated tone when it is empty.
func runTestMode(settings config.Settings, wavPath string, in io.Reader, out io.Writer) int {
	beep.Disable()

	var fake *audio.FakeContext
	if wavPath != "" {
		var err error
		fake, err = audio.NewFakeContext(wavPath, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			return 1
		}
	} else {
		fake = audio.NewFakeContextPCM(testTone(2*time.Second), true)
	}

	sink := &lineSink{w: out}
	resolver := theme.NewDelayResolver(settings.ResolveDelay, settings.FailRate)
	log.SessionStart("delay", settings.ResolveDelay, settings.FailRate)

	recordingDir := ""
	if settings.KeepRecordings {
		recordingDir = log.Dir()
	}
	recorder := capture.NewController(fake, nil)
	recorder.SetGain(settings.Gain)
	app := NewApp(appDeps{
		resolver:     resolver,
		recorder:     recorder,
		settings:     settings,
		sink:         sink,
		recordingDir: recordingDir,
	})
	defer func() {
		app.Close()
		log.SessionEnd(app.Submitted())
	}()

	hk := hotkey.NewFake()
	hy := hotkey.NewHybrid(hk, settings.LongPress)
	done := make(chan struct{})
	defer func() {
		close(done)
		hy.Close()
	}()
	go runHotkeyLoop(app, hy, done)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
		case "TEXT":
			if _, err := app.SubmitText(arg); err != nil {
				sink.printf("error %v", err)
			}
		case "VOICE":
			if err := app.OpenVoice(); err != nil {
				sink.printf("error %v", err)
			}
		case "SUBMIT":
			if _, err := app.Submit(); err != nil {
				sink.printf("error %v", err)
			}
		case "CANCEL":
			app.Cancel()
		case "KEYDOWN":
			hk.Press()
		case "KEYUP":
			hk.Release()
		case "WAIT":
			waitInputClosed(app, 10*time.Second)
			app.WaitIdle()
		case "WAIT_AUDIO_DONE":
			if caps := fake.Captures(); len(caps) > 0 {
				<-caps[len(caps)-1].AudioDone()
			}
		case "REVEAL":
			revealCommand(app, sink, arg)
		case "LIST":
			for i, e := range app.Entries() {
				sink.printf("%d. %s", i+1, e.Label)
			}
			sink.printf("end")
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return 0
		default:
			sink.printf("error unknown command %q", cmd)
		}
	}
	return 0
}

// waitInputClosed gives the hotkey loop time to finish a submit it has
// already been told about.
func waitInputClosed(app *App, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for app.Pill().Mode != pill.ModeIdle && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

func revealCommand(app *App, sink *lineSink, arg string) {
	if arg == "" {
		if _, err := app.RevealFirst(); err != nil {
			sink.printf("error %v", err)
		}
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		sink.printf("error bad index %q", arg)
		return
	}
	if _, ok := app.RevealIndex(n); !ok {
		sink.printf("error task %d is not ready", n)
	}
}

// testTone is a 440Hz sine at 16kHz mono, little-endian int16.
func testTone(d time.Duration) []byte {
	n := int(d.Seconds() * 16000)
	buf := make([]byte, n*2)
	for i := range n {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
		buf[2*i] = byte(v)
		buf[2*i+1] = byte(v >> 8)
	}
	return buf
}
