// Package log writes the diagnostics log and the submitted-tasks journal.
// Every call is a no-op until Init succeeds.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const EnvPath = "TINT_LOG_PATH"

const (
	diagName  = "diagnostics_log.txt"
	tasksName = "tasks_log.txt"
	stampFmt  = "2006-01-02 15:04:05"
)

var (
	logMu    sync.Mutex
	diagLog  zerolog.Logger
	files    []*os.File
	journal  io.Writer
	logReady atomic.Bool
	pid      int
	dir      string
)

// ResolveDir picks the log directory: flag, then $TINT_LOG_PATH, then the
// platform default.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv(EnvPath)} {
		if p != "" {
			return filepath.Abs(p)
		}
	}
	return getDefaultDir()
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func openAppend(name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()
	if err := EnsureDir(); err != nil {
		return err
	}

	diag, err := openAppend(diagName)
	if err != nil {
		return err
	}
	tasks, err := openAppend(tasksName)
	if err != nil {
		diag.Close()
		return err
	}

	pid = os.Getpid()
	files = []*os.File{diag, tasks}
	journal = tasks
	diagLog = zerolog.New(zerolog.ConsoleWriter{Out: diag, TimeFormat: stampFmt, NoColor: true}).
		With().Timestamp().Int("pid", pid).Logger()
	logReady.Store(true)
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	logReady.Store(false)
	for _, f := range files {
		f.Close()
	}
	files = nil
	journal = nil
}

// event returns nil before Init; zerolog treats a nil event as disabled.
func event(level zerolog.Level) *zerolog.Event {
	if !logReady.Load() {
		return nil
	}
	return diagLog.WithLevel(level)
}

func Info(msg string)  { event(zerolog.InfoLevel).Msg(msg) }
func Warn(msg string)  { event(zerolog.WarnLevel).Msg(msg) }
func Error(msg string) { event(zerolog.ErrorLevel).Msg(msg) }

func Warnf(format string, args ...any)  { event(zerolog.WarnLevel).Msgf(format, args...) }
func Errorf(format string, args ...any) { event(zerolog.ErrorLevel).Msgf(format, args...) }

// TaskSubmitted also appends the input to tasks_log.txt, one tab-separated
// line per task with newlines in the input flattened.
func TaskSubmitted(id, kind, input string) {
	event(zerolog.InfoLevel).Str("id", id).Str("kind", kind).Int("input_len", len(input)).Msg("task_submitted")

	logMu.Lock()
	defer logMu.Unlock()
	if journal == nil {
		return
	}
	fields := []string{time.Now().Format(stampFmt), fmt.Sprintf("[%d]", pid), id, kind, strings.ReplaceAll(input, "\n", " ")}
	io.WriteString(journal, strings.Join(fields, "\t")+"\n")
}

func TaskReady(id, theme string, latency time.Duration) {
	event(zerolog.InfoLevel).Str("id", id).Str("theme", theme).
		Float64("latency_ms", float64(latency.Microseconds())/1000).Msg("task_ready")
}

func TaskDiscarded(id string, err error) {
	event(zerolog.WarnLevel).Str("id", id).Err(err).Msg("task_discarded")
}

func ThemeApplied(id, theme string) {
	event(zerolog.InfoLevel).Str("id", id).Str("theme", theme).Msg("theme_applied")
}

func Recording(d time.Duration, size int, format string) {
	event(zerolog.InfoLevel).Float64("audio_s", d.Seconds()).
		Float64("size_kb", float64(size)/1024).Str("format", format).Msg("recording")
}

func SessionStart(resolver string, delay time.Duration, failRate float64) {
	event(zerolog.InfoLevel).Str("resolver", resolver).Dur("delay", delay).
		Float64("fail_rate", failRate).Msg("session_start")
}

func SessionEnd(submitted int) {
	event(zerolog.InfoLevel).Int("submitted", submitted).Msg("session_end")
}
