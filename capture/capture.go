// Package capture owns the microphone for the length of one recording.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tint/audio"
	"tint/encoder"
)

// ErrResourceUnavailable covers a denied permission, a missing device and a
// device that is already recording.
var ErrResourceUnavailable = errors.New("capture resource unavailable")

// Artifact is a finalized recording.
type Artifact struct {
	Data      []byte
	Format    string
	Frames    uint64
	Duration  time.Duration
	StartedAt time.Time
}

func (a Artifact) Empty() bool { return len(a.Data) == 0 }

// Save writes the artifact into dir and returns the file path.
func (a Artifact) Save(dir string) (string, error) {
	if a.Empty() {
		return "", errors.New("empty artifact")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("recording_%s.%s", a.StartedAt.Format("20060102_150405.000"), a.Format)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

type Controller struct {
	ctx        audio.Context
	config     audio.CaptureConfig
	newEncoder func() (encoder.Encoder, error)
	now        func() time.Time

	mu     sync.Mutex
	device *audio.DeviceInfo
	live   *Session
}

// NewController records from device, or the system default when device is nil.
func NewController(ctx audio.Context, device *audio.DeviceInfo) *Controller {
	return &Controller{
		ctx: ctx,
		config: audio.CaptureConfig{
			SampleRate: encoder.SampleRate,
			Channels:   encoder.Channels,
		},
		newEncoder: func() (encoder.Encoder, error) { return encoder.NewFlac() },
		now:        time.Now,
		device:     device,
	}
}

// SetDevice changes the device used by the next Acquire. A live session keeps
// its device.
func (c *Controller) SetDevice(device *audio.DeviceInfo) {
	c.mu.Lock()
	c.device = device
	c.mu.Unlock()
}

// SetGain sets the software gain for the next Acquire.
func (c *Controller) SetGain(gain int) {
	c.mu.Lock()
	c.config.Gain = gain
	c.mu.Unlock()
}

func (c *Controller) Device() *audio.DeviceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Live reports whether a session currently holds the device.
func (c *Controller) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live != nil
}

// Acquire opens and starts the device. Only one session may be live.
func (c *Controller) Acquire() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live != nil {
		return nil, fmt.Errorf("%w: recording already in progress", ErrResourceUnavailable)
	}

	enc, err := c.newEncoder()
	if err != nil {
		return nil, fmt.Errorf("encoder init: %w", err)
	}
	dev, err := c.ctx.NewCapture(c.device, c.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	s := &Session{
		c:       c,
		dev:     dev,
		pipe:    encoder.NewPipeline(enc),
		format:  enc.Format(),
		started: c.now(),
	}
	dev.SetCallback(s.onData)
	c.live = s
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		s.pipe.Discard()
		c.live = nil
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}
	return s, nil
}

func (c *Controller) released(s *Session) {
	c.mu.Lock()
	if c.live == s {
		c.live = nil
	}
	c.mu.Unlock()
}

// Session is one live recording. Stop and Abort both release the device;
// whichever runs first wins and later calls are no-ops.
type Session struct {
	c       *Controller
	dev     audio.CaptureDevice
	pipe    *encoder.Pipeline
	format  string
	started time.Time

	mu      sync.Mutex
	frames  uint64
	level   float64
	stopped bool

	releaseOnce sync.Once

	endMu    sync.Mutex
	ended    bool
	artifact Artifact
	err      error
}

func (s *Session) onData(data []byte, frameCount uint32) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.frames += uint64(frameCount)
	if len(data) > 1 {
		s.level = rms(data)
	}
	s.mu.Unlock()

	if len(data) > 0 {
		s.pipe.Feed(data)
	}
}

func rms(data []byte) float64 {
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}

// Level is the RMS of the most recent audio buffer, 0..1.
func (s *Session) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Session) Duration() time.Duration {
	return encoder.FramesDuration(s.Frames())
}

func (s *Session) DeviceName() string { return s.dev.DeviceName() }

// Stop finalizes what was recorded so far and releases the device. The
// device is released even when encoding fails. A second Stop returns the
// same artifact; Stop after Abort returns an empty one.
func (s *Session) Stop() (Artifact, error) {
	s.endMu.Lock()
	defer s.endMu.Unlock()
	if s.ended {
		return s.artifact, s.err
	}
	s.ended = true

	s.release()
	frames := s.Frames()
	data, err := s.pipe.Finish()
	if err != nil {
		s.err = fmt.Errorf("finalize recording: %w", err)
		return s.artifact, s.err
	}
	s.artifact = Artifact{
		Data:      data,
		Format:    s.format,
		Frames:    frames,
		Duration:  encoder.FramesDuration(frames),
		StartedAt: s.started,
	}
	return s.artifact, nil
}

// Abort releases the device and drops the recording.
func (s *Session) Abort() {
	s.endMu.Lock()
	defer s.endMu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.release()
	s.pipe.Discard()
}

func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.dev.Stop()
		s.dev.ClearCallback()
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.dev.Close()
		s.c.released(s)
	})
}
