package audio

import (
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
	fakeSampleRate    = 16000
)

// FakeContext replays canned PCM instead of a microphone. Set CaptureErr or
// StartErr to simulate a denied or missing device.
type FakeContext struct {
	pcm      []byte
	realtime bool

	mu         sync.Mutex
	CaptureErr error
	StartErr   error
	captures   []*FakeCapture
}

// NewFakeContext loads a 16kHz mono WAV file.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContextPCM(data, realtime), nil
}

func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CaptureErr != nil {
		return nil, f.CaptureErr
	}
	c := &FakeCapture{
		pcm:       f.pcm,
		gain:      config.Gain,
		realtime:  f.realtime,
		startErr:  f.StartErr,
		audioDone: make(chan struct{}),
	}
	f.captures = append(f.captures, c)
	return c, nil
}

// Captures returns every device handed out so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

type FakeCapture struct {
	pcm       []byte
	gain      int
	realtime  bool
	startErr  error
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
	starts   int
	stops    int
	closes   int
}

// AudioDone is closed once all canned PCM has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

// chunk returns the canned PCM from pos, at most one frame block long, with
// gain applied. It returns nil once everything has been delivered.
func (f *FakeCapture) chunk(pos int) []byte {
	if pos >= len(f.pcm) {
		return nil
	}
	end := min(pos+fakeFrameSize*fakeBytesPerFrame, len(f.pcm))
	return amplify(append([]byte(nil), f.pcm[pos:end]...), f.gain)
}

func (f *FakeCapture) deliver(data []byte) {
	if cb := f.callback(); cb != nil {
		cb(data, uint32(len(data)/fakeBytesPerFrame))
	}
}

// Start delivers the canned PCM. Without realtime it is fed synchronously
// before Start returns; with realtime it is paced at the sample rate and
// followed by silence until Stop.
func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.starts++
	f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	if !f.realtime {
		for pos := 0; pos < len(f.pcm); pos += fakeFrameSize * fakeBytesPerFrame {
			f.deliver(f.chunk(pos))
		}
		close(f.audioDone)
		close(f.feedDone)
		return nil
	}
	go f.pace()
	return nil
}

func (f *FakeCapture) pace() {
	defer close(f.feedDone)
	tick := time.NewTicker(time.Duration(fakeFrameSize) * time.Second / fakeSampleRate)
	defer tick.Stop()
	silence := make([]byte, fakeFrameSize*fakeBytesPerFrame)
	var done sync.Once
	for pos := 0; ; {
		if data := f.chunk(pos); data != nil {
			f.deliver(data)
			pos += len(data)
		} else {
			done.Do(func() { close(f.audioDone) })
			f.deliver(silence)
		}
		select {
		case <-f.stopCh:
			return
		case <-tick.C:
		}
	}
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
}

// Counts reports how many times Start, Stop and Close were called.
func (f *FakeCapture) Counts() (starts, stops, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops, f.closes
}
