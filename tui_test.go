package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tint/pill"
	"tint/task"
	"tint/theme"
	"tint/ticker"
)

func TestWrapText(t *testing.T) {
	for _, tt := range []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"empty", "", 10, []string{""}},
		{"fits", "make it pink", 20, []string{"make it pink"}},
		{"breaks on spaces", "make it a warm pink", 8, []string{"make it", "a warm", "pink"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"wide runes", "色色色 x", 4, []string{"色色", "色 x"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestRenderStatusTypesOverPrevious(t *testing.T) {
	s := newPalette(theme.Default)
	st := ticker.State{Displayed: "Working in background…", Pending: "Change ready (text)", InFlight: true, Progress: 0.5}
	got := renderStatus(st, 80, s)
	if !strings.Contains(got, "Change rea") {
		t.Errorf("missing typed half of pending: %q", got)
	}
	if strings.Contains(got, "Change ready (text)") {
		t.Errorf("pending fully shown mid-transition: %q", got)
	}

	settled := renderStatus(ticker.State{Displayed: "Change ready (text)"}, 80, s)
	if !strings.Contains(settled, "Change ready (text)") {
		t.Errorf("settled = %q", settled)
	}
	if renderStatus(ticker.State{}, 80, s) != "" {
		t.Error("empty status rendered text")
	}
}

func TestLevelMeter(t *testing.T) {
	if got := levelMeter(0); got != "▁" {
		t.Errorf("levelMeter(0) = %q", got)
	}
	if got := levelMeter(1); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("levelMeter(1) = %q", got)
	}
}

func TestRenderOrbSize(t *testing.T) {
	orb := renderOrb(3, 0.05, true, newPalette(theme.Palettes[1]))
	lines := strings.Split(strings.TrimRight(orb, "\n"), "\n")
	if len(lines) != orbHeight {
		t.Errorf("orb has %d rows, want %d", len(lines), orbHeight)
	}
}

type actLog struct{ fns []func() }

func (a *actLog) act(fn func()) { a.fns = append(a.fns, fn) }

func (a *actLog) runAll() {
	fns := a.fns
	a.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func TestTUIComposeAndSubmit(t *testing.T) {
	e := newAppEnv(t)
	acts := &actLog{}
	var m tea.Model = newTUIModel(e.app, acts.act, false)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	acts.runAll()
	if e.app.Pill().Mode != pill.ModeComposing {
		t.Fatalf("mode = %s, want composing", e.app.Pill().Mode)
	}
	m, _ = m.Update(pillMsg{State: e.app.Pill()})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("teal")})
	if got := m.(tuiModel).input.Value(); got != "teal" {
		t.Fatalf("input = %q, want teal", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	acts.runAll()
	ev := e.expect(t, task.EventSubmitted)
	if ev.Task.Input != "teal" {
		t.Errorf("submitted %q, want teal", ev.Task.Input)
	}
	if e.app.Pill().Mode != pill.ModeIdle {
		t.Errorf("mode = %s, want idle", e.app.Pill().Mode)
	}
}

func TestTUIThemeRecolours(t *testing.T) {
	e := newAppEnv(t)
	var m tea.Model = newTUIModel(e.app, func(func()) {}, false)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(themeMsg{Theme: theme.Palettes[3]})

	tm := m.(tuiModel)
	if tm.theme != theme.Palettes[3] {
		t.Errorf("theme = %v", tm.theme)
	}
	if !strings.Contains(tm.View(), theme.Palettes[3].Name) {
		t.Error("view does not name the applied theme")
	}
}

func TestTUIDigitRevealsNth(t *testing.T) {
	e := newAppEnv(t)
	acts := &actLog{}
	var m tea.Model = newTUIModel(e.app, acts.act, false)

	id, _ := e.app.SubmitText("green")
	e.expect(t, task.EventSubmitted)
	e.arrived(t)
	e.resolver.Succeed(string(id), theme.Palettes[2])
	e.expect(t, task.EventReady)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	acts.runAll()
	if e.app.Theme() != theme.Palettes[2] {
		t.Errorf("Theme = %v, want %v", e.app.Theme(), theme.Palettes[2])
	}
}
