package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if s != Defaults() {
		t.Errorf("Load = %+v, want defaults", s)
	}
}

func TestLoadOverridesOnlySetKeys(t *testing.T) {
	path := writeConfig(t, `
resolve_delay: 500ms
fail_rate: 0.25
max_visible_words: 5
beep: false
transcript_text: "hello there"
`)
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Defaults()
	want.ResolveDelay = 500 * time.Millisecond
	want.FailRate = 0.25
	want.MaxVisibleWords = 5
	want.Beep = false
	want.TranscriptText = "hello there"
	if s != want {
		t.Errorf("Load =\n%+v\nwant\n%+v", s, want)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"fail rate above one", "fail_rate: 1.5"},
		{"negative delay", "resolve_delay: -1s"},
		{"zero words", "max_visible_words: 0"},
		{"zero ticker", "ticker_duration: 0s"},
		{"zero gain", "gain: 0"},
		{"gain too high", "gain: 40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "resolve_delay: [not, a, duration]"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want a parse error", err)
	}
}

func TestTemplateLoadsAsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := SaveTo(path, Template()); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s != Defaults() {
		t.Errorf("template settings = %+v, want defaults", s)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "/env/config.yaml")
	if got := ResolvePath("/flag/config.yaml"); got != "/flag/config.yaml" {
		t.Errorf("flag path = %q", got)
	}
	if got := ResolvePath(""); got != "/env/config.yaml" {
		t.Errorf("env path = %q", got)
	}
	t.Setenv(EnvPath, "")
	if got := ResolvePath(""); filepath.Base(got) != "config.yaml" || filepath.Base(filepath.Dir(got)) != "tint" {
		t.Errorf("default path = %q", got)
	}
}
