package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvPath = "TINT_CONFIG"

var ErrInvalid = errors.New("invalid config")

// File is the on-disk config. Unset keys keep their defaults.
type File struct {
	ResolveDelay    *time.Duration `yaml:"resolve_delay,omitempty"`
	FailRate        *float64       `yaml:"fail_rate,omitempty"`
	TickerDuration  *time.Duration `yaml:"ticker_duration,omitempty"`
	WordInterval    *time.Duration `yaml:"word_interval,omitempty"`
	MaxVisibleWords *int           `yaml:"max_visible_words,omitempty"`
	TranscriptText  *string        `yaml:"transcript_text,omitempty"`
	KeepRecordings  *bool          `yaml:"keep_recordings,omitempty"`
	Beep            *bool          `yaml:"beep,omitempty"`
	Hotkey          *bool          `yaml:"hotkey,omitempty"`
	LongPress       *time.Duration `yaml:"long_press,omitempty"`
	Device          *string        `yaml:"device,omitempty"`
	Gain            *int           `yaml:"gain,omitempty"`
}

// Settings is the resolved configuration with every value filled in.
type Settings struct {
	ResolveDelay    time.Duration
	FailRate        float64
	TickerDuration  time.Duration
	WordInterval    time.Duration
	MaxVisibleWords int
	TranscriptText  string
	KeepRecordings  bool
	Beep            bool
	Hotkey          bool
	LongPress       time.Duration
	Device          string
	Gain            int
}

func Defaults() Settings {
	return Settings{
		ResolveDelay:    3 * time.Second,
		TickerDuration:  250 * time.Millisecond,
		WordInterval:    275 * time.Millisecond,
		MaxVisibleWords: 14,
		Beep:            true,
		Hotkey:          true,
		LongPress:       350 * time.Millisecond,
		Gain:            1,
	}
}

// Apply merges file values over s.
func (f *File) Apply(s Settings) Settings {
	if f.ResolveDelay != nil {
		s.ResolveDelay = *f.ResolveDelay
	}
	if f.FailRate != nil {
		s.FailRate = *f.FailRate
	}
	if f.TickerDuration != nil {
		s.TickerDuration = *f.TickerDuration
	}
	if f.WordInterval != nil {
		s.WordInterval = *f.WordInterval
	}
	if f.MaxVisibleWords != nil {
		s.MaxVisibleWords = *f.MaxVisibleWords
	}
	if f.TranscriptText != nil {
		s.TranscriptText = *f.TranscriptText
	}
	if f.KeepRecordings != nil {
		s.KeepRecordings = *f.KeepRecordings
	}
	if f.Beep != nil {
		s.Beep = *f.Beep
	}
	if f.Hotkey != nil {
		s.Hotkey = *f.Hotkey
	}
	if f.LongPress != nil {
		s.LongPress = *f.LongPress
	}
	if f.Device != nil {
		s.Device = *f.Device
	}
	if f.Gain != nil {
		s.Gain = *f.Gain
	}
	return s
}

func (s Settings) Validate() error {
	if s.ResolveDelay < 0 {
		return fmt.Errorf("%w: resolve_delay must not be negative", ErrInvalid)
	}
	if s.FailRate < 0 || s.FailRate > 1 {
		return fmt.Errorf("%w: fail_rate must be between 0 and 1", ErrInvalid)
	}
	if s.TickerDuration <= 0 {
		return fmt.Errorf("%w: ticker_duration must be positive", ErrInvalid)
	}
	if s.WordInterval <= 0 {
		return fmt.Errorf("%w: word_interval must be positive", ErrInvalid)
	}
	if s.MaxVisibleWords <= 0 {
		return fmt.Errorf("%w: max_visible_words must be positive", ErrInvalid)
	}
	if s.LongPress <= 0 {
		return fmt.Errorf("%w: long_press must be positive", ErrInvalid)
	}
	if s.Gain < 1 || s.Gain > 16 {
		return fmt.Errorf("%w: gain must be between 1 and 16", ErrInvalid)
	}
	return nil
}

func DefaultDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".tint"
	}
	return filepath.Join(configDir, "tint")
}

// ResolvePath picks the config file: flag, then $TINT_CONFIG, then the
// user config dir.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return s, fmt.Errorf("failed to parse config file: %w", err)
	}
	s = f.Apply(s)
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Template is a commented config file with every key at its default.
func Template() string {
	return `# tint configuration

# Simulated time to pick a theme, and the share of picks that fail.
resolve_delay: 3s
fail_rate: 0

# Status line transition.
ticker_duration: 250ms

# Scripted transcription while recording.
word_interval: 275ms
max_visible_words: 14
# transcript_text: "your own sentence"

# Save FLAC recordings next to the logs.
keep_recordings: false

beep: true

# Global Ctrl+Shift+Space: hold to talk, tap to toggle.
hotkey: true
long_press: 350ms

# device: "Built-in Microphone"

# Software gain for quiet microphones, 1 to 16.
gain: 1
`
}

// SaveTo writes content to path, creating directories as needed.
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
