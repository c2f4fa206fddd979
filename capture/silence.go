package capture

import "time"

const (
	// SilenceTick is how often the monitor expects a sample.
	SilenceTick = 100 * time.Millisecond
	// SpeechLevel is the RMS level above which a tick counts as voice.
	SpeechLevel = 0.02

	silenceWarnAfter  = 8 * time.Second
	silenceCloseAfter = 30 * time.Second
	speechMinRatio    = 0.10
	speechClearRatio  = 0.25 // higher than speechMinRatio so the warning does not flap
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no voice for the warn window
	SilenceClear                  // voice came back after a warning
	SilenceRepeat                 // still silent, one warn window later
	SilenceAutoClose              // silent for the whole close window
)

// SilenceMonitor watches a sliding window of voice/no-voice ticks. Repeat
// and auto-close only apply when canClose reports true, so a held
// push-to-talk recording is never closed under the speaker.
type SilenceMonitor struct {
	warnAt   int
	windowSz int
	canClose func() bool

	ticks       int
	window      []bool
	speechCount int
	warned      bool
	lastWarn    int
}

func NewSilenceMonitor(canClose func() bool) *SilenceMonitor {
	if canClose == nil {
		canClose = func() bool { return true }
	}
	windowSz := int(silenceCloseAfter / SilenceTick)
	return &SilenceMonitor{
		warnAt:   int(silenceWarnAfter / SilenceTick),
		windowSz: windowSz,
		canClose: canClose,
		window:   make([]bool, windowSz),
	}
}

// ratio is the voice share over the last n ticks.
func (m *SilenceMonitor) ratio(n int) float64 {
	n = min(n, m.ticks)
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := range n {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *SilenceMonitor) Tick(voice bool) SilenceEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = voice
	if voice {
		m.speechCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)
	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		m.lastWarn = m.ticks
		return SilenceWarn
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return SilenceClear
	}

	if !m.canClose() {
		return SilenceNone
	}
	// auto-close wins over repeat
	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return SilenceAutoClose
	}
	if m.warned && m.ticks-m.lastWarn >= m.warnAt {
		m.lastWarn = m.ticks
		return SilenceRepeat
	}
	return SilenceNone
}
