package audio

import "github.com/voxkey/voxkey/internal/capture"

// Device represents an audio input device
type Device struct {
	ID        int
	Name      string
	IsDefault bool
}

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (real-time)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// Driver is the interface for the audio device layer. It opens input
// streams whose callbacks deliver float32 sample chunks until the stream
// is stopped. The abstraction allows for future replacement of PortAudio
// with other libraries (e.g., miniaudio), and lets tests fake the device.
type Driver interface {
	// ListDevices returns a list of available audio input devices
	ListDevices() ([]Device, error)

	// OpenInputStream opens a device input stream. onData is invoked on
	// the driver's own thread with each captured chunk until the stream
	// is stopped; the chunk slice is only valid for the duration of the
	// call, so consumers must copy what they keep.
	OpenInputStream(cfg capture.StreamConfig, onData func([]float32)) (capture.Stream, error)

	// Terminate releases all driver resources
	Terminate() error
}
