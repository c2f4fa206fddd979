// Package doctor runs non-interactive environment checks for -doctor.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"tint/audio"
	"tint/capture"
	"tint/clipboard"
	"tint/config"
	"tint/hotkey"
	"tint/theme"
)

const captureProbe = 500 * time.Millisecond

type Options struct {
	LogDir     string
	ConfigPath string
	Device     string
	Out        io.Writer
	// NewAudio opens the audio backend. Defaults to audio.NewContext.
	NewAudio func() (audio.Context, error)
	// SkipSystem leaves out the hotkey and clipboard checks, which depend on
	// the desktop session rather than on tint.
	SkipSystem bool
}

type check struct {
	name string
	run  func() (string, error)
	// optional checks print WARN instead of FAIL and do not affect the exit code
	optional bool
}

var (
	pass = color.New(color.FgGreen, color.Bold).SprintFunc()
	fail = color.New(color.FgRed, color.Bold).SprintFunc()
	warn = color.New(color.FgYellow, color.Bold).SprintFunc()
	dim  = color.New(color.Faint).SprintFunc()
)

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.NewAudio == nil {
		opts.NewAudio = audio.NewContext
	}
	out := opts.Out

	checks := []check{
		{name: "Log directory", run: func() (string, error) { return checkLogDir(opts.LogDir) }},
		{name: "Config file", run: func() (string, error) { return checkConfig(opts.ConfigPath) }},
		{name: "Theme resolver", run: checkResolver},
		{name: "Microphone", run: func() (string, error) { return checkCapture(opts.NewAudio, opts.Device) }},
	}
	if !opts.SkipSystem {
		checks = append(checks,
			check{name: "Global shortcut", run: hotkey.Diagnose, optional: true},
			check{name: "Clipboard", run: checkClipboard, optional: true},
		)
	}

	fmt.Fprintln(out, "tint doctor - system diagnostics")
	fmt.Fprintln(out, "================================")

	allPass := true
	for i, c := range checks {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(checks), c.name)
		msg, err := c.run()
		switch {
		case err == nil:
			fmt.Fprintf(out, "  %s %s\n", pass("PASS"), msg)
		case c.optional:
			fmt.Fprintf(out, "  %s %v\n", warn("WARN"), err)
		default:
			fmt.Fprintf(out, "  %s %v\n", fail("FAIL"), err)
			allPass = false
		}
	}

	fmt.Fprintln(out)
	if allPass {
		fmt.Fprintln(out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(out, "Some checks failed. See details above.")
	return 1
}

func checkLogDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("log directory not resolved")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	check := filepath.Join(dir, ".doctor_check")
	if err := os.WriteFile(check, []byte("ok"), 0644); err != nil {
		return "", fmt.Errorf("not writable: %w", err)
	}
	os.Remove(check)
	return dir, nil
}

func checkConfig(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("%s %s", path, dim("(not found, using defaults)")), nil
	}
	s, err := config.Load(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (resolve_delay=%s, fail_rate=%.2f)", path, s.ResolveDelay, s.FailRate), nil
}

func checkResolver() (string, error) {
	r := theme.NewDelayResolver(10*time.Millisecond, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	t, err := r.Resolve(ctx, theme.Request{ID: "doctor", Input: "doctor"})
	if err != nil {
		return "", err
	}
	return "resolved to " + t.Name, nil
}

func checkCapture(newAudio func() (audio.Context, error), deviceName string) (string, error) {
	actx, err := newAudio()
	if err != nil {
		return "", fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		return "", fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", audio.ErrNoDevice
	}

	var device *audio.DeviceInfo
	if deviceName != "" {
		if device, err = audio.FindDevice(actx, deviceName); err != nil || device == nil {
			return "", fmt.Errorf("device %q not found", deviceName)
		}
	}

	c := capture.NewController(actx, device)
	sess, err := c.Acquire()
	if err != nil {
		return "", err
	}
	time.Sleep(captureProbe)
	art, err := sess.Stop()
	if err != nil {
		return "", err
	}
	name := sess.DeviceName()
	if audio.IsBluetooth(name) {
		name += " (bluetooth, low quality)"
	}
	return fmt.Sprintf("%s: %d device(s), captured %.1fs -> %.1f KB %s",
		name, len(devices), art.Duration.Seconds(), float64(len(art.Data))/1024, art.Format), nil
}

func checkClipboard() (string, error) {
	if !clipboard.Available() {
		return "", clipboard.ErrUnsupported
	}
	if _, err := clipboard.Read(); err != nil {
		return "", err
	}
	return "system clipboard reachable", nil
}
