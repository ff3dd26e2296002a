package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/voxkey/voxkey/internal/capture"
)

const defaultFramesPerBuffer = 1024

// PortAudioDriver implements Driver using PortAudio
type PortAudioDriver struct {
	latency LatencyMode
}

// NewPortAudioDriver creates a new PortAudio driver
func NewPortAudioDriver(latency LatencyMode) (*PortAudioDriver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &PortAudioDriver{latency: latency}, nil
}

// ListDevices returns a list of available audio input devices
func (d *PortAudioDriver) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		// If we can't get the default device, continue without marking any as default
		defaultInput = nil
	}

	var result []Device
	for i, dev := range devices {
		// Only include devices with input channels
		if dev.MaxInputChannels > 0 {
			isDefault := defaultInput != nil && dev.Name == defaultInput.Name

			result = append(result, Device{
				ID:        i,
				Name:      dev.Name,
				IsDefault: isDefault,
			})
		}
	}

	return result, nil
}

// OpenInputStream opens a PortAudio input stream that forwards each
// captured chunk to onData. The stream is returned stopped; the caller
// starts it and owns its teardown.
func (d *PortAudioDriver) OpenInputStream(cfg capture.StreamConfig, onData func([]float32)) (capture.Stream, error) {
	device, err := resolveDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	var latency time.Duration
	switch d.latency {
	case LowLatency:
		latency = device.DefaultLowInputLatency
	default:
		latency = device.DefaultHighInputLatency
	}

	streamParams := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: defaultFramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(streamParams, func(in []float32) {
		onData(in)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	return stream, nil
}

// resolveDevice maps a configured device ID to a PortAudio device.
// ID -1 selects the system default input device.
func resolveDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	var device *portaudio.DeviceInfo

	if deviceID == -1 {
		def, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		device = def
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}

		if deviceID < 0 || deviceID >= len(devices) {
			return nil, fmt.Errorf("invalid device ID: %d", deviceID)
		}

		device = devices[deviceID]
	}

	if device.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("selected device '%s' (ID: %d) has no input channels (output-only device)",
			device.Name, deviceID)
	}

	return device, nil
}

// Terminate releases all PortAudio resources
func (d *PortAudioDriver) Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}
