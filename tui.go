package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tint/hotkey"
	"tint/pill"
	"tint/task"
	"tint/theme"
	"tint/ticker"
	"tint/transcript"
)

// TUI message types
type pillMsg struct{ State pill.State }
type tasksMsg struct{ Entries []task.Entry }
type statusMsg struct{ State ticker.State }
type transcriptMsg struct{ Line string }
type themeMsg struct{ Theme theme.Theme }
type noticeMsg struct{ Text string }
type tickMsg time.Time

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards App events into the Bubble Tea loop. It must never be
// called from inside Update, since Send blocks until the loop receives.
type tuiSink struct{}

func (tuiSink) PillChanged(s pill.State) { tuiSend(pillMsg{State: s}) }
func (tuiSink) TaskEvent(_ task.Event, entries []task.Entry) {
	tuiSend(tasksMsg{Entries: entries})
}
func (tuiSink) StatusChanged(s ticker.State)  { tuiSend(statusMsg{State: s}) }
func (tuiSink) TranscriptChanged(line string) { tuiSend(transcriptMsg{Line: line}) }
func (tuiSink) ThemeApplied(t theme.Theme)    { tuiSend(themeMsg{Theme: t}) }
func (tuiSink) Notice(text string)            { tuiSend(noticeMsg{Text: text}) }

// Orb pixel indices. 0 is empty.
const (
	orbCore = iota + 1
	orbInner
	orbOuter
	orbRim
	orbShine
	orbColors
)

type palette struct {
	base     lipgloss.Style
	title    lipgloss.Style
	accent   lipgloss.Style
	dim      lipgloss.Style
	faint    lipgloss.Style
	rec      lipgloss.Style
	notice   lipgloss.Style
	box      lipgloss.Style
	fg       [orbColors]lipgloss.Style
	fgOverBg [orbColors][orbColors]lipgloss.Style
}

// newPalette derives every style from the active theme so a reveal recolours
// the whole screen.
func newPalette(t theme.Theme) palette {
	bg := lipgloss.Color(t.Background)
	colors := [orbColors]lipgloss.Color{
		orbCore:  lipgloss.Color(t.Accent),
		orbInner: lipgloss.Color(t.Primary),
		orbOuter: lipgloss.Color(t.Primary),
		orbRim:   lipgloss.Color("238"),
		orbShine: lipgloss.Color("255"),
	}
	p := palette{
		base:   lipgloss.NewStyle().Background(bg),
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary)).Bold(true),
		accent: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		faint:  lipgloss.NewStyle().Foreground(lipgloss.Color("239")),
		rec:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		notice: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Primary)).
			Padding(0, 1),
	}
	for i := 1; i < orbColors; i++ {
		p.fg[i] = lipgloss.NewStyle().Foreground(colors[i])
		for j := 1; j < orbColors; j++ {
			p.fgOverBg[i][j] = lipgloss.NewStyle().Foreground(colors[i]).Background(colors[j])
		}
	}
	return p
}

type tuiModel struct {
	app    *App
	act    func(func())
	hotkey bool

	frame         int
	width, height int
	pill          pill.State
	entries       []task.Entry
	status        ticker.State
	transcript    string
	theme         theme.Theme
	styles        palette
	notice        string
	level         float64

	input   textinput.Model
	spinner spinner.Model
}

func newTUIModel(app *App, act func(func()), hotkeyEnabled bool) tuiModel {
	in := textinput.New()
	in.Placeholder = "Describe a colour change…"
	in.CharLimit = 500
	in.Prompt = "› "

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	t := app.Theme()
	return tuiModel{
		app:     app,
		act:     act,
		hotkey:  hotkeyEnabled,
		theme:   t,
		styles:  newPalette(t),
		input:   in,
		spinner: sp,
	}
}

// NewTUIProgram builds the program and a serial action runner. App calls made
// on behalf of key presses run on that runner, in press order, so Update never
// blocks on an App observer that is itself waiting on Send.
func NewTUIProgram(app *App, hotkeyEnabled bool) *tea.Program {
	actions := make(chan func(), 64)
	go func() {
		for fn := range actions {
			fn()
		}
	}()
	act := func(fn func()) {
		select {
		case actions <- fn:
		default:
		}
	}
	return tea.NewProgram(newTUIModel(app, act, hotkeyEnabled), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tuiTick(), m.spinner.Tick)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-12, 10)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		if m.pill.Mode == pill.ModeRecording {
			m.level = m.level*0.6 + m.app.Level()*0.4
		} else {
			m.level = 0
		}
		if m.status.InFlight {
			m.status = m.app.Status()
		}
		return m, tuiTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pillMsg:
		prev := m.pill.Mode
		m.pill = msg.State
		if prev != msg.State.Mode {
			m.notice = ""
			if msg.State.Mode == pill.ModeComposing {
				m.input.Reset()
				return m, m.input.Focus()
			}
			m.input.Blur()
		}

	case tasksMsg:
		m.entries = msg.Entries

	case statusMsg:
		m.status = msg.State

	case transcriptMsg:
		m.transcript = msg.Line

	case themeMsg:
		m.theme = msg.Theme
		m.styles = newPalette(msg.Theme)

	case noticeMsg:
		m.notice = msg.Text
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := m.app
	switch m.pill.Mode {
	case pill.ModeComposing:
		switch msg.Type {
		case tea.KeyEnter:
			text := m.input.Value()
			m.act(func() {
				if err := app.SetText(text); err != nil {
					return
				}
				app.Submit()
			})
			return m, nil
		case tea.KeyEsc:
			m.act(app.Cancel)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case pill.ModeRecording:
		switch msg.String() {
		case "enter", " ":
			m.act(func() { app.Submit() })
		case "esc":
			m.act(app.Cancel)
		case "p":
			m.act(app.TogglePause)
		}
		return m, nil
	}

	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "t", "i":
		m.act(func() { app.OpenText() })
	case "v":
		m.act(func() { app.OpenVoice() })
	case "r":
		m.act(func() {
			if _, err := app.RevealFirst(); err != nil {
				app.sink.Notice("Nothing ready yet")
			}
		})
	case "y":
		m.act(func() {
			if err := app.CopyTheme(); err != nil {
				app.sink.Notice(fmt.Sprintf("Copy failed: %v", err))
			}
		})
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
			m.act(func() { app.RevealIndex(n) })
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	s := m.styles
	recording := m.pill.Mode == pill.ModeRecording
	contentWidth := max(m.width-orbWidth-2, 20)

	orb := renderOrb(m.frame, m.level, recording, s)

	var right []string
	right = append(right, s.title.Render("tint")+s.dim.Render("  theme: ")+s.accent.Render(m.theme.String()))
	right = append(right, "")
	right = append(right, renderStatus(m.status, contentWidth, s))
	right = append(right, "")

	if len(m.entries) == 0 {
		right = append(right, s.faint.Render("No changes in flight"))
	}
	for i, e := range m.entries {
		marker := s.accent.Render("●")
		if e.Status == task.StatusProcessing {
			marker = m.spinner.View()
		}
		line := fmt.Sprintf("%d. %s %s", i+1, marker, e.Label)
		right = append(right, ticker.Fit(line, contentWidth+12))
	}
	right = append(right, "")
	right = append(right, s.box.Width(min(contentWidth-2, 70)).Render(m.pillView(contentWidth-6)))

	if m.notice != "" {
		for _, l := range wrapText(m.notice, contentWidth) {
			right = append(right, s.notice.Render(l))
		}
	}
	right = append(right, "")
	right = append(right, m.helpLine())

	orbPanel := lipgloss.NewStyle().Width(orbWidth + 2).Render(orb)
	infoPanel := lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(right, "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, orbPanel, infoPanel)
	return s.base.Width(m.width).Height(m.height).Render(body)
}

func (m tuiModel) pillView(width int) string {
	s := m.styles
	switch m.pill.Mode {
	case pill.ModeComposing:
		return m.input.View()
	case pill.ModeRecording:
		head := s.rec.Render("● REC "+pill.FormatElapsed(m.pill.Elapsed)) + "  " + levelMeter(m.level)
		line := m.transcript
		if line == "" {
			line = transcript.Placeholder
		}
		return head + "\n" + s.dim.Render(ticker.Fit(line, width))
	default:
		return s.faint.Render("○ idle")
	}
}

func (m tuiModel) helpLine() string {
	s := m.styles
	key := func(k, what string) string { return s.dim.Bold(true).Render(k) + s.faint.Render(" "+what) }
	var parts []string
	switch m.pill.Mode {
	case pill.ModeComposing:
		parts = []string{key("enter", "submit"), key("esc", "cancel")}
	case pill.ModeRecording:
		parts = []string{key("enter", "submit"), key("esc", "cancel"), key("p", "pause text")}
	default:
		parts = []string{key("t", "type"), key("v", "voice"), key("1-9/r", "reveal"), key("y", "copy css"), key("q", "quit")}
		if m.hotkey {
			parts = append(parts, key(hotkey.Combo, "hold or tap"))
		}
	}
	return strings.Join(parts, s.faint.Render(" · ")) + "\n" + s.faint.Render("tint "+version)
}

// renderStatus types the pending message over the displayed one as the
// transition progresses.
func renderStatus(st ticker.State, width int, s palette) string {
	if !st.InFlight {
		if st.Displayed == "" {
			return ""
		}
		return s.title.Render(ticker.Fit(st.Displayed, width))
	}
	next := []rune(st.Pending)
	prev := []rune(st.Displayed)
	n := int(math.Ceil(st.Progress * float64(len(next))))
	n = min(max(n, 0), len(next))
	head := string(next[:n])
	tail := ""
	if len(prev) > n {
		tail = string(prev[n:])
	}
	head = ticker.Fit(head, width)
	tail = ticker.Fit(tail, width-runewidth.StringWidth(head))
	return s.title.Render(head) + s.faint.Render(tail)
}

func levelMeter(level float64) string {
	const bars = "▁▂▃▄▅▆▇█"
	r := []rune(bars)
	n := min(int(level*10*float64(len(r))), len(r)-1)
	if level <= 0 {
		n = 0
	}
	return string(r[:n+1])
}

const (
	orbWidth  = 22
	orbHeight = 9
)

// renderOrb draws a breathing disc with half-block characters, two pixels per
// row. While recording it swells with the microphone level.
func renderOrb(frame int, level float64, recording bool, s palette) string {
	const pixW = orbWidth
	const pixH = orbHeight * 2
	cx, cy := float64(pixW)/2, float64(pixH)/2

	var breathe float64
	if recording {
		breathe = math.Sin(float64(frame)*0.10)*0.03 + level*6.0
	} else {
		breathe = math.Sin(float64(frame)*0.08) * 0.02
	}

	rings := []struct {
		radius, react float64
		color         int
	}{
		{1.2, 0.2, orbCore},
		{3.0, 0.6, orbInner},
		{5.2, 0.4, orbOuter},
		{7.0, 0.0, orbRim},
	}

	pixels := make([][]int, pixH)
	for y := range pixels {
		pixels[y] = make([]int, pixW)
		for x := range pixels[y] {
			dx, dy := float64(x)-cx, float64(y)-cy
			dist := math.Sqrt(dx*dx + dy*dy)
			for _, r := range rings {
				if dist < min(r.radius+breathe*r.react*20, 8.0) {
					pixels[y][x] = r.color
					break
				}
			}
		}
	}
	// glint
	if gx, gy := int(cx-3), int(cy-4); gy >= 0 && gx >= 0 {
		pixels[gy][gx] = orbShine
	}

	var b strings.Builder
	for row := 0; row < orbHeight; row++ {
		for x := 0; x < pixW; x++ {
			top, bot := pixels[row*2][x], pixels[row*2+1][x]
			switch {
			case top == 0 && bot == 0:
				b.WriteString(" ")
			case top == bot:
				b.WriteString(s.fg[top].Render("█"))
			case bot == 0:
				b.WriteString(s.fg[top].Render("▀"))
			case top == 0:
				b.WriteString(s.fg[bot].Render("▄"))
			default:
				b.WriteString(s.fgOverBg[top][bot].Render("▀"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// wrapText breaks text on spaces so no line is wider than width cells.
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	width = max(width, 1)

	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		for w > width {
			cut := runewidth.Truncate(word, width, "")
			if cut == "" {
				cut = string([]rune(word)[:1])
			}
			if lineWidth > 0 {
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
			}
			lines = append(lines, cut)
			word = strings.TrimPrefix(word, cut)
			w = runewidth.StringWidth(word)
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
