package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCaptureStart is returned when the device input stream could not be
// opened or started. The recorder fully unwinds to Idle before returning it.
var ErrCaptureStart = errors.New("failed to start capture")

// State represents the recorder's session state
type State int

const (
	// Idle means no recording session is live
	Idle State = iota
	// Active means a session is recording
	Active
	// Overflowed means the buffer filled mid-session; the stream is still
	// open (writes are dropped) until Stop tears it down
	Overflowed
	// Stopping means Stop is tearing down the stream
	Stopping
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Active:
		return "Active"
	case Overflowed:
		return "Overflowed"
	case Stopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Stream is an open device input stream. Close must guarantee that the
// data callback is no longer invoked once it returns.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Opener opens device input streams. Implemented by the audio package;
// tests provide fakes.
type Opener interface {
	OpenInputStream(cfg StreamConfig, onData func([]float32)) (Stream, error)
}

// StreamConfig holds the device stream parameters for one recorder
type StreamConfig struct {
	DeviceID   int
	SampleRate int
	Channels   int
}

// Logger is the diagnostics sink injected at construction
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config holds recorder configuration
type Config struct {
	DeviceID    int
	SampleRate  int
	Channels    int
	MaxDuration time.Duration
}

// DefaultConfig returns the default recorder configuration
// Sample rate: 16kHz mono (Whisper recommended), 30 second ceiling
func DefaultConfig() Config {
	return Config{
		DeviceID:    -1,
		SampleRate:  16000,
		Channels:    1,
		MaxDuration: 30 * time.Second,
	}
}

// Recorder owns the capture buffer and the device stream handle and
// enforces the start/stop lifecycle between them. The audio callback only
// ever touches the buffer; the stream handle belongs to the recorder alone.
type Recorder struct {
	mu         sync.Mutex
	state      State
	stream     Stream
	opener     Opener
	buffer     *Buffer
	cfg        Config
	log        Logger
	onOverflow func(message string)
}

// NewRecorder creates a recorder with a buffer pre-sized to
// SampleRate × MaxDuration samples. onOverflow is invoked at most once per
// session, on its own goroutine, when the buffer fills; it may be nil.
func NewRecorder(opener Opener, cfg Config, log Logger, onOverflow func(string)) *Recorder {
	capacity := cfg.SampleRate * int(cfg.MaxDuration.Seconds())
	return &Recorder{
		state:      Idle,
		opener:     opener,
		buffer:     NewBuffer(capacity),
		cfg:        cfg,
		log:        log,
		onOverflow: onOverflow,
	}
}

// Start begins a new recording session. Calling it while a session is live
// is a no-op with a warning, not an error. On stream construction failure
// the recorder unwinds completely and can be started again immediately.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle {
		r.log.Warn("Recording already in progress (state: %s)", r.state)
		return nil
	}

	// A previous teardown may have failed to release the handle. Force
	// close before opening a new stream so we never hold two.
	if r.stream != nil {
		r.log.Warn("Closing stale stream from previous session")
		if err := r.stream.Close(); err != nil {
			r.log.Warn("Failed to close stale stream: %v", err)
		}
		r.stream = nil
	}

	r.buffer.Reset()

	stream, err := r.opener.OpenInputStream(StreamConfig{
		DeviceID:   r.cfg.DeviceID,
		SampleRate: r.cfg.SampleRate,
		Channels:   r.cfg.Channels,
	}, r.deliver)
	if err != nil {
		return fmt.Errorf("%w: open stream: %v", ErrCaptureStart, err)
	}

	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			r.log.Warn("Failed to close stream after start failure: %v", cerr)
		}
		return fmt.Errorf("%w: start stream: %v", ErrCaptureStart, err)
	}

	r.stream = stream
	r.state = Active
	r.log.Info("Recording started (capacity: %d samples)", r.buffer.Cap())
	return nil
}

// deliver is the realtime write path, invoked by the device callback.
// It must not block on anything but the buffer guard and must not take
// r.mu: Stop holds r.mu across stream.Stop(), which waits for in-flight
// callbacks, so acquiring it here could deadlock teardown. The Overflowed
// session state is derived from the buffer's latch instead.
func (r *Recorder) deliver(chunk []float32) {
	switch r.buffer.Write(chunk) {
	case WriteOK, WriteDropped:
		return
	case WriteOverflow:
		r.log.Warn("Recording buffer full (%v limit reached)", r.cfg.MaxDuration)

		if r.onOverflow != nil {
			msg := fmt.Sprintf("Recording stopped: %v buffer limit reached", r.cfg.MaxDuration)
			// Fired on its own goroutine, outside any lock, so it can
			// never stall audio delivery or deadlock against Stop.
			go r.onOverflow(msg)
		}
	}
}

// Stop ends the current session and returns the captured samples.
// Stream teardown failures are logged, never propagated; the recorder
// always ends up Idle with no handle registered. Stopping when no session
// is live returns an empty slice with a warning. A live session that
// captured nothing returns ErrNoAudioCaptured.
func (r *Recorder) Stop() ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Idle && r.stream == nil {
		r.log.Warn("No recording in progress")
		return []float32{}, nil
	}

	r.state = Stopping
	r.closeStreamLocked()
	r.state = Idle

	// The stream is closed, so no further writes can race with this read.
	data, err := r.buffer.Read()
	if err != nil {
		return nil, fmt.Errorf("stop recording: %w", err)
	}

	r.log.Info("Recording stopped: %d samples captured", len(data))
	return data, nil
}

// closeStreamLocked releases the stream handle best-effort. Errors are
// logged and swallowed; the handle is always cleared so the recorder never
// believes a dead stream is still open. Caller holds r.mu.
func (r *Recorder) closeStreamLocked() {
	if r.stream == nil {
		return
	}

	if err := r.stream.Stop(); err != nil {
		r.log.Warn("Failed to stop stream: %v", err)
	}
	if err := r.stream.Close(); err != nil {
		r.log.Warn("Failed to close stream: %v", err)
	}
	r.stream = nil
}

// IsCapturing reports whether a session is live or a stream handle is
// still pending cleanup. Callers must not start a new session while this
// is true.
func (r *Recorder) IsCapturing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != Idle || r.stream != nil
}

// GetState returns the current session state. An Active session whose
// buffer has latched overflow reports Overflowed.
func (r *Recorder) GetState() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Active && r.buffer.Overflowed() {
		return Overflowed
	}
	return r.state
}

// Close releases the device stream if one is still open. Safe to call on
// shutdown regardless of state.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeStreamLocked()
	r.state = Idle
}
