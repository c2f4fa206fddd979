// Package beep plays short audio cues for recording and task events.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

const sampleRate = 44100

var (
	disabled  atomic.Bool
	soundOnce sync.Once
	sounds    [numSounds][]int16
)

func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

type Sound int

const (
	SoundStart Sound = iota
	SoundEnd
	SoundError
	SoundReady
	numSounds
)

// tone is one decaying sine, followed by gap seconds of silence.
type tone struct {
	freq, length, volume, decay, gap float64
}

// Start and end are single ticks, error is a low double beep and ready
// rises over two notes. A zero length means the platform tick.
var cues = [numSounds][]tone{
	SoundStart: {{freq: 1200, volume: 0.5, decay: 60}},
	SoundEnd:   {{freq: 900, volume: 0.5, decay: 40}},
	SoundError: {
		{freq: 350, length: 0.08, volume: 0.6, decay: 30, gap: 0.05},
		{freq: 350, length: 0.08, volume: 0.6, decay: 30},
	},
	SoundReady: {
		{freq: 660, length: 0.08, volume: 0.4, decay: 25},
		{freq: 990, volume: 0.4, decay: 25},
	},
}

func render(tones []tone) []int16 {
	var out []int16
	for _, t := range tones {
		length := t.length
		if length == 0 {
			length = tickDuration
		}
		out = append(out, decayingSine(t.freq, length, t.volume, t.decay)...)
		out = append(out, make([]int16, int(sampleRate*t.gap))...)
	}
	return out
}

// decayingSine returns a mono sine with an exponential envelope.
func decayingSine(freq, length, volume, decay float64) []int16 {
	samples := make([]int16, int(sampleRate*length))
	for i := range samples {
		t := float64(i) / sampleRate
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * math.MaxInt16 * volume * math.Exp(-t*decay))
	}
	return samples
}

func initSound() {
	for s, tones := range cues {
		sounds[s] = render(tones)
	}
	initBackend()
}

// Init prepares samples and the output device ahead of the first cue.
func Init() {
	soundOnce.Do(initSound)
}

// Play is asynchronous and never reports errors; a missing audio output
// just means silence.
func Play(s Sound) {
	if disabled.Load() || s < 0 || s >= numSounds {
		return
	}
	soundOnce.Do(initSound)
	output(sounds[s])
}

func PlayStart() { Play(SoundStart) }
func PlayEnd()   { Play(SoundEnd) }
func PlayError() { Play(SoundError) }
func PlayReady() { Play(SoundReady) }
