package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func le16(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func TestPCMBytesClips(t *testing.T) {
	in := []int16{0, 100, -100, 10000, -10000}
	got := pcmBytes(in, 4)
	want := le16(0, 400, -400, math.MaxInt16, math.MinInt16)
	if string(got) != string(want) {
		t.Errorf("pcmBytes = %v, want %v", got, want)
	}
}

func TestPCMBytesUnity(t *testing.T) {
	in := []int16{1, -2, 3}
	for _, gain := range []int{0, 1} {
		if got := pcmBytes(in, gain); string(got) != string(le16(in...)) {
			t.Errorf("gain %d: pcmBytes = %v", gain, got)
		}
	}
}

func TestAmplifyMatchesPCMBytes(t *testing.T) {
	in := []int16{7, -7, 5000, -5000, 30000}
	got := amplify(le16(in...), 3)
	if want := pcmBytes(in, 3); string(got) != string(want) {
		t.Errorf("amplify = %v, want %v", got, want)
	}
	if got := amplify(le16(in...), 1); string(got) != string(le16(in...)) {
		t.Error("unity gain changed data")
	}
}

func TestIsBluetooth(t *testing.T) {
	for name, want := range map[string]bool{
		"AirPods Pro":                  true,
		"WH-1000XM4 Hands-Free":        true,
		"Headset (BT)":                 true,
		"Built-in Microphone":          false,
		"USB Audio Device Analog Mono": false,
	} {
		if got := IsBluetooth(name); got != want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFakeCaptureAppliesGain(t *testing.T) {
	ctx := NewFakeContextPCM(le16(10, -10, 20000), false)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1, Gain: 2})
	if err != nil {
		t.Fatal(err)
	}
	var got []byte
	dev.SetCallback(func(data []byte, _ uint32) { got = append(got, data...) })
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Stop()
	if want := le16(20, -20, math.MaxInt16); string(got) != string(want) {
		t.Errorf("delivered %v, want %v", got, want)
	}
}
