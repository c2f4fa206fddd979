package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
)

const WAVHeaderSize = 44

var ErrNoDevice = errors.New("no capture devices found")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether it is a headset
// running in low-quality hands-free mode.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DataCallback receives little-endian signed 16-bit PCM.
type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
	Gain       int // linear software gain, 0 means unity
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// FindDevice returns the device with the given name, or nil.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, nil
}

// pcmBytes converts samples to little-endian bytes, applying a linear gain
// with clipping. A gain below 1 is unity.
func pcmBytes(samples []int16, gain int) []byte {
	data := make([]byte, len(samples)*2)
	g := int32(max(gain, 1))
	for i, s := range samples {
		v := min(max(int32(s)*g, math.MinInt16), math.MaxInt16)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return data
}

// amplify applies gain in place to little-endian PCM. A gain below 2 leaves
// data untouched.
func amplify(data []byte, gain int) []byte {
	if gain < 2 {
		return data
	}
	g := int32(gain)
	for i := 0; i+1 < len(data); i += 2 {
		v := int32(int16(binary.LittleEndian.Uint16(data[i:]))) * g
		v = min(max(v, math.MinInt16), math.MaxInt16)
		binary.LittleEndian.PutUint16(data[i:], uint16(int16(v)))
	}
	return data
}
