//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

const tickDuration = 0.03

// player keeps one playback device open and swaps the sample buffer per cue.
type player struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	buf atomic.Pointer[[]byte]
	pos atomic.Uint32
}

var out player

func (p *player) open() error {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate
	dev, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{Data: p.fill})
	if err != nil {
		return err
	}
	p.device = dev
	return nil
}

// fill runs on the audio thread and pads with silence past the end.
func (p *player) fill(output, _ []byte, frameCount uint32) {
	want := frameCount * 2
	samples := p.buf.Load()
	if samples == nil {
		clear(output[:want])
		return
	}
	pos := p.pos.Load()
	n := uint32(copy(output[:want], (*samples)[pos:]))
	p.pos.Store(pos + n)
	clear(output[n:want])
	if pos+n >= uint32(len(*samples)) {
		p.buf.Store(nil)
	}
}

func initBackend() {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	out.mu.Lock()
	defer out.mu.Unlock()
	out.ctx = ctx
	if err := out.open(); err != nil {
		ctx.Uninit()
		out.ctx = nil
	}
}

func output(mono []int16) {
	if len(mono) == 0 {
		return
	}
	data := make([]byte, len(mono)*2)
	for i, s := range mono {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.ctx == nil {
		return
	}
	out.device.Stop()
	out.pos.Store(0)
	out.buf.Store(&data)
	if err := out.device.Start(); err == nil {
		return
	}
	// the device goes stale across sleep and wake
	out.device.Uninit()
	if err := out.open(); err != nil {
		out.ctx.Uninit()
		out.ctx = nil
		out.buf.Store(nil)
		return
	}
	if err := out.device.Start(); err != nil {
		out.buf.Store(nil)
	}
}
