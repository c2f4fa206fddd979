//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	result := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		result = append(result, DeviceInfo{ID: encodeDeviceID(d.ID), Name: d.Name()})
	}
	return result, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate

	if device != nil {
		id, err := decodeDeviceID(device.ID)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", device.Name, err)
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	c := &malgoCapture{info: device, gain: config.Gain}
	callbacks := malgo.DeviceCallbacks{Data: c.deliver}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("malgo init device: %w", err)
	}
	c.device = dev
	return c, nil
}

func encodeDeviceID(id malgo.DeviceID) string {
	return hex.EncodeToString(id[:])
}

func decodeDeviceID(s string) (malgo.DeviceID, error) {
	var id malgo.DeviceID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid device ID: %w", err)
	}
	if len(raw) > len(id) {
		return id, fmt.Errorf("invalid device ID: %d bytes", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	device   *malgo.Device
	info     *DeviceInfo
	gain     int
	callback atomic.Pointer[DataCallback]
}

// deliver runs on the miniaudio thread. The input buffer is reused after
// return, so it is copied before gain is applied.
func (c *malgoCapture) deliver(_, input []byte, frameCount uint32) {
	cb := c.callback.Load()
	if cb == nil || len(input) == 0 {
		return
	}
	data := make([]byte, len(input))
	copy(data, input)
	(*cb)(amplify(data, c.gain), frameCount)
}

func (c *malgoCapture) Start() error { return c.device.Start() }

func (c *malgoCapture) Stop() { c.device.Stop() }

func (c *malgoCapture) Close() { c.device.Uninit() }

func (c *malgoCapture) SetCallback(cb DataCallback) { c.callback.Store(&cb) }

func (c *malgoCapture) ClearCallback() { c.callback.Store(nil) }

func (c *malgoCapture) DeviceName() string {
	if c.info != nil {
		return c.info.Name
	}
	return "system default"
}
