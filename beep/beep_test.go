package beep

import (
	"math"
	"testing"
)

func peak(s []int16) float64 {
	var p float64
	for _, v := range s {
		p = math.Max(p, math.Abs(float64(v)))
	}
	return p
}

func TestDecayingSineFades(t *testing.T) {
	samples := decayingSine(1000, 0.1, 0.5, 60)
	if len(samples) != sampleRate/10 {
		t.Fatalf("len = %d, want %d", len(samples), sampleRate/10)
	}
	head, tail := peak(samples[:500]), peak(samples[len(samples)-500:])
	if head > math.MaxInt16*0.5 || tail >= head {
		t.Errorf("head peak %v, tail peak %v", head, tail)
	}
}

func TestErrorCueHasSilentGap(t *testing.T) {
	one := len(decayingSine(350, 0.08, 0.6, 30))
	gap := int(sampleRate * 0.05)
	double := render(cues[SoundError])
	if len(double) != 2*one+gap {
		t.Fatalf("len = %d, want %d", len(double), 2*one+gap)
	}
	if peak(double[one:one+gap]) != 0 {
		t.Error("gap is not silent")
	}
}

func TestEveryCueRenders(t *testing.T) {
	for s := range numSounds {
		if len(render(cues[s])) == 0 {
			t.Errorf("sound %d is empty", s)
		}
	}
	if got, want := len(render(cues[SoundStart])), int(sampleRate*tickDuration); got != want {
		t.Errorf("start tick = %d samples, want %d", got, want)
	}
}

func TestDisable(t *testing.T) {
	if !Enabled() {
		t.Fatal("enabled by default")
	}
	Disable()
	t.Cleanup(func() { disabled.Store(false) })
	if Enabled() {
		t.Error("still enabled after Disable")
	}
	PlayReady()
}
