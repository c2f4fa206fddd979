//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("TINT_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "TINT_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func writeSilenceWAV(path string, sampleRate int, durationS float64) error {
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type run struct {
	logDir string
	out    string
}

func runTint(t *testing.T, stdin string, args ...string) run {
	t.Helper()
	dir := t.TempDir()
	cmdArgs := append([]string{
		"-logpath", dir,
		"-config", filepath.Join(dir, "missing.yaml"),
		"-delay", "50ms",
		"-beep=false",
		"-test",
	}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("tint exited with error: %v\noutput: %s", err, out)
	}
	return run{logDir: dir, out: string(out)}
}

func (r run) require(t *testing.T, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if !strings.Contains(r.out, l) {
			t.Errorf("output missing %q:\n%s", l, r.out)
		}
	}
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestTextRoundTrip(t *testing.T) {
	r := runTint(t, cmds("TEXT make it pink", "WAIT", "SLEEP 400", "LIST", "REVEAL", "LIST", "QUIT"))
	r.require(t,
		"mode composing",
		"task submitted text",
		"task ready text",
		`status "Change ready (text)"`,
		"1. Change ready (text)",
		"task revealed text",
		"theme ",
	)
	if !strings.Contains(readLog(t, r.logDir, "tasks_log.txt"), "make it pink") {
		t.Error("tasks_log.txt missing submitted input")
	}
	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "task_ready", "theme_applied", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %s", want)
		}
	}
}

func TestEmptyTextIsRejected(t *testing.T) {
	r := runTint(t, cmds("TEXT", "LIST", "QUIT"))
	r.require(t, "error input is empty", "mode idle")
	if strings.Contains(r.out, "task submitted") {
		t.Errorf("empty input created a task:\n%s", r.out)
	}
}

func TestVoiceRoundTrip(t *testing.T) {
	r := runTint(t, cmds("VOICE", "SLEEP 300", "SUBMIT", "WAIT", "REVEAL 1", "QUIT"), "-keep")
	r.require(t, "mode recording", "task submitted voice", "task ready voice", "task revealed voice")

	matches, _ := filepath.Glob(filepath.Join(r.logDir, "recording_*.flac"))
	if len(matches) != 1 {
		t.Errorf("found %d recordings, want 1", len(matches))
	}
	if !strings.Contains(readLog(t, r.logDir, "tasks_log.txt"), "Voice recording (") {
		t.Error("tasks_log.txt missing voice label")
	}
}

func TestCancelVoiceCreatesNoTask(t *testing.T) {
	r := runTint(t, cmds("VOICE", "SLEEP 100", "CANCEL", "LIST", "QUIT"))
	r.require(t, "mode recording", "mode idle", "end")
	if strings.Contains(r.out, "task submitted") {
		t.Errorf("cancelled recording created a task:\n%s", r.out)
	}
}

func TestHoldToTalk(t *testing.T) {
	r := runTint(t, cmds("KEYDOWN", "SLEEP 600", "KEYUP", "WAIT", "QUIT"))
	r.require(t, "mode recording", "task submitted voice", "task ready voice")
}

func TestTapToToggle(t *testing.T) {
	r := runTint(t, cmds("KEYDOWN", "KEYUP", "SLEEP 300", "KEYDOWN", "KEYUP", "WAIT", "QUIT"))
	r.require(t, "task submitted voice")
}

func TestWAVInput(t *testing.T) {
	wav := filepath.Join(t.TempDir(), "silence.wav")
	if err := writeSilenceWAV(wav, 16000, 1.0); err != nil {
		t.Fatal(err)
	}
	r := runTint(t, cmds("VOICE", "WAIT_AUDIO_DONE", "SUBMIT", "WAIT", "QUIT"), wav)
	r.require(t, "task submitted voice", "task ready voice")
}

func TestFailedResolutionIsDiscarded(t *testing.T) {
	r := runTint(t, cmds("TEXT a", "TEXT b", "WAIT", "LIST", "QUIT"), "-failrate", "1")
	r.require(t, "task discarded text", "end")
	if strings.Contains(r.out, "1. ") {
		t.Errorf("failed tasks still listed:\n%s", r.out)
	}
	if !strings.Contains(readLog(t, r.logDir, "diagnostics_log.txt"), "task_discarded") {
		t.Error("diagnostics missing task_discarded")
	}
}

func TestRevealOutOfRange(t *testing.T) {
	r := runTint(t, cmds("REVEAL 3", "REVEAL", "QUIT"))
	r.require(t, "error task 3 is not ready", "error no ready change to reveal")
}
