package encoder

import "time"

// Recordings are 16kHz mono 16-bit PCM, encoded in fixed-size blocks.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder compresses blocks of samples into an in-memory stream. Blocks
// arrive from a single goroutine; the accessors may be called from others.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	Format() string
}

// FramesDuration converts a sample count at SampleRate to wall time.
func FramesDuration(frames uint64) time.Duration {
	return time.Duration(frames) * time.Second / SampleRate
}
