package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"tint/audio"
	"tint/beep"
	"tint/capture"
	"tint/config"
	"tint/doctor"
	"tint/hotkey"
	"tint/log"
	"tint/pill"
	"tint/shutdown"
	"tint/theme"

	"gopkg.in/yaml.v3"
)

var version = "dev"

var (
	shutdownOnce sync.Once
	activeApp    *App
	appMu        sync.Mutex
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		appMu.Lock()
		app := activeApp
		appMu.Unlock()
		if app != nil {
			app.Close()
			log.SessionEnd(app.Submitted())
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// onSignal lets a running TUI restore the terminal before the process exits.
func onSignal() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Quit()
		return
	}
	gracefulShutdown()
}

// initCrashLog routes runtime crash output to crash_log.txt in the log
// directory. It runs before flag parsing, so it resolves the directory from
// the environment only.
func initCrashLog() {
	dir, err := log.ResolveDir("")
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
}

func run() {
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	configFlag := flag.String("config", "", "config file (default: $TINT_CONFIG or the user config dir)")
	initConfigFlag := flag.Bool("init", false, "Write a commented config file and exit")
	setupFlag := flag.Bool("setup", false, "Pick a microphone and save it to the config file")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	delayFlag := flag.Duration("delay", 0, "Simulated theme resolution delay (overrides config)")
	failRateFlag := flag.Float64("failrate", 0, "Fraction of resolutions that fail, 0..1 (overrides config)")
	keepFlag := flag.Bool("keep", false, "Save voice recordings as FLAC in the log directory")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven); optional WAV argument")
	hotkeyFlag := flag.Bool("hotkey", true, "Enable the global "+hotkey.Combo+" hotkey")
	beepFlag := flag.Bool("beep", true, "Play sounds on record start, stop and ready")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *versionFlag {
		fmt.Printf("tint %s\n", version)
		os.Exit(0)
	}

	configPath := config.ResolvePath(*configFlag)

	if *initConfigFlag {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Config already exists: %s\n", configPath)
			os.Exit(0)
		}
		if err := config.SaveTo(configPath, config.Template()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", configPath)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(doctor.Options{
			LogDir:     log.Dir(),
			ConfigPath: configPath,
			Device:     *deviceFlag,
		}))
	}

	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if set["delay"] {
		settings.ResolveDelay = *delayFlag
	}
	if set["failrate"] {
		settings.FailRate = *failRateFlag
	}
	if set["keep"] {
		settings.KeepRecordings = *keepFlag
	}
	if set["hotkey"] {
		settings.Hotkey = *hotkeyFlag
	}
	if set["beep"] {
		settings.Beep = *beepFlag
	}
	if set["device"] {
		settings.Device = *deviceFlag
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *setupFlag {
		if err := setupDevice(configPath); err != nil && !errors.Is(err, audio.ErrSelectionAborted) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if !settings.Beep {
		beep.Disable()
	}

	if *testFlag {
		code := runTestMode(settings, flag.Arg(0), os.Stdin, os.Stdout)
		log.Close()
		os.Exit(code)
	}

	stopSignals := shutdown.Watch(onSignal)
	defer stopSignals()

	go beep.Init()

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var device *audio.DeviceInfo
	if settings.Device != "" {
		device, err = audio.FindDevice(actx, settings.Device)
		switch {
		case err != nil:
			log.Warnf("device %q: %v, using system default", settings.Device, err)
		case device == nil:
			log.Warnf("device %q not found, using system default", settings.Device)
		}
	}

	recordingDir := ""
	if settings.KeepRecordings {
		recordingDir = log.Dir()
	}

	recorder := capture.NewController(actx, device)
	recorder.SetGain(settings.Gain)
	app := NewApp(appDeps{
		resolver:     theme.NewDelayResolver(settings.ResolveDelay, settings.FailRate),
		recorder:     recorder,
		settings:     settings,
		sink:         tuiSink{},
		recordingDir: recordingDir,
	})
	appMu.Lock()
	activeApp = app
	appMu.Unlock()
	log.SessionStart("delay", settings.ResolveDelay, settings.FailRate)

	hotkeyOn := false
	if settings.Hotkey {
		hk := hotkey.New()
		if err := hk.Register(); err != nil {
			log.Warnf("hotkey register error: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: global hotkey unavailable: %v\n", err)
		} else {
			defer hk.Unregister()
			hy := hotkey.NewHybrid(hk, settings.LongPress)
			defer hy.Close()
			done := make(chan struct{})
			defer close(done)
			go runHotkeyLoop(app, hy, done)
			hotkeyOn = true
		}
	}

	p := NewTUIProgram(app, hotkeyOn)
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	gracefulShutdown()
}

// setupDevice runs the terminal picker and records the choice in the config
// file, keeping any other settings already there.
func setupDevice(configPath string) error {
	actx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer actx.Close()

	dev, err := audio.SelectDevice(actx)
	if err != nil {
		return err
	}

	content := config.Template()
	if data, err := os.ReadFile(configPath); err == nil {
		content = string(data)
	}
	updated, err := withDevice(content, dev.Name)
	if err != nil {
		return err
	}
	if err := config.SaveTo(configPath, updated); err != nil {
		return err
	}
	fmt.Printf("Using %s (saved to %s)\n", dev.Name, configPath)
	return nil
}

// withDevice sets the top-level device key of a config document, keeping
// every other key and comment as written.
func withDevice(content, name string) (string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return "", fmt.Errorf("parsing config: %w", err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 {
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"})
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return "", errors.New("config is not a mapping")
	}

	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name, Style: yaml.DoubleQuotedStyle}
	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "device" {
			value.LineComment = root.Content[i+1].LineComment
			root.Content[i+1] = value
			replaced = true
		}
	}
	if !replaced {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "device"}, value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// runHotkeyLoop maps hold-to-talk and tap-to-toggle onto voice input.
func runHotkeyLoop(app *App, hy *hotkey.Hybrid, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-hy.Start():
			if err := app.OpenVoiceFrom(hy.IsToggle); err != nil {
				log.Warnf("hotkey start: %v", err)
				continue
			}
			log.Info("hotkey_start")
		case <-hy.Stop():
			if app.Pill().Mode != pill.ModeRecording {
				continue
			}
			log.Info("hotkey_stop_" + string(hy.Mode()))
			app.Submit()
		}
	}
}
