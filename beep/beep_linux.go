//go:build linux

package beep

import (
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

// PulseAudio wants a longer tail before draining or the cue is clipped.
const tickDuration = 0.2

// queue plays cues one at a time; a cue arriving while the queue is full is
// dropped.
var queue = make(chan []int16, 4)

func initBackend() {
	go func() {
		for mono := range queue {
			playMono(mono)
		}
	}()
}

func output(mono []int16) {
	select {
	case queue <- mono:
	default:
	}
}

// cursor feeds a fixed sample slice to a playback stream.
type cursor struct {
	samples []int16
	pos     int
}

func (c *cursor) read(buf []int16) (int, error) {
	if c.pos >= len(c.samples) {
		return 0, pulse.EndOfData
	}
	n := copy(buf, c.samples[c.pos:])
	c.pos += n
	return n, nil
}

// playMono opens a short-lived connection per cue, so a restarted sound
// server never leaves beeps broken.
func playMono(mono []int16) {
	if len(mono) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	src := &cursor{samples: mono}
	stream, err := c.NewPlayback(pulse.Int16Reader(src.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
	stream.Stop()
}
