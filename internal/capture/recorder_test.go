package capture

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// testLogger collects log lines so tests can assert on warnings
type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) record(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, v...))
}

func (l *testLogger) Debug(format string, v ...interface{}) { l.record("DEBUG", format, v...) }
func (l *testLogger) Info(format string, v ...interface{})  { l.record("INFO", format, v...) }
func (l *testLogger) Warn(format string, v ...interface{})  { l.record("WARN", format, v...) }
func (l *testLogger) Error(format string, v ...interface{}) { l.record("ERROR", format, v...) }

func (l *testLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if len(line) >= len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}

// fakeStream simulates a device input stream
type fakeStream struct {
	mu       sync.Mutex
	started  bool
	closed   bool
	stopErr  error
	closeErr error
}

func (s *fakeStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return s.stopErr
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

// fakeOpener simulates the device layer and hands the data callback back
// to the test so it can play the producer role
type fakeOpener struct {
	mu       sync.Mutex
	openErr  error
	startErr error
	opened   int
	stream   *fakeStream
	onData   func([]float32)
	teardown *fakeStream // overrides stream errors when set
}

func (o *fakeOpener) OpenInputStream(cfg StreamConfig, onData func([]float32)) (Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.openErr != nil {
		return nil, o.openErr
	}

	o.opened++
	o.onData = onData

	s := &fakeStream{}
	if o.teardown != nil {
		s.stopErr = o.teardown.stopErr
		s.closeErr = o.teardown.closeErr
	}
	o.stream = s

	if o.startErr != nil {
		return &failingStream{err: o.startErr, inner: s}, nil
	}
	return s, nil
}

// failingStream fails Start but still tracks Close
type failingStream struct {
	err   error
	inner *fakeStream
}

func (s *failingStream) Start() error { return s.err }
func (s *failingStream) Stop() error  { return s.inner.Stop() }
func (s *failingStream) Close() error { return s.inner.Close() }

func (o *fakeOpener) feed(chunk []float32) {
	o.mu.Lock()
	onData := o.onData
	o.mu.Unlock()
	onData(chunk)
}

func testConfig() Config {
	// capacity = 2 samples/sec × 2 sec = 4 samples
	return Config{
		DeviceID:    -1,
		SampleRate:  2,
		Channels:    1,
		MaxDuration: 2 * time.Second,
	}
}

func newTestRecorder(opener *fakeOpener, onOverflow func(string)) (*Recorder, *testLogger) {
	log := &testLogger{}
	return NewRecorder(opener, testConfig(), log, onOverflow), log
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", config.SampleRate)
	}
	if config.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", config.Channels)
	}
	if config.MaxDuration != 30*time.Second {
		t.Errorf("Expected max duration 30s, got %v", config.MaxDuration)
	}
	if config.DeviceID != -1 {
		t.Errorf("Expected default device ID -1, got %d", config.DeviceID)
	}
}

func TestRecordStopRoundTrip(t *testing.T) {
	opener := &fakeOpener{}
	rec, _ := newTestRecorder(opener, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !rec.IsCapturing() {
		t.Error("Should be capturing after Start")
	}
	if rec.GetState() != Active {
		t.Errorf("Expected Active, got %v", rec.GetState())
	}

	opener.feed([]float32{1, 2})
	opener.feed([]float32{3, 4})

	data, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	expected := []float32{1, 2, 3, 4}
	if len(data) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(data))
	}
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, expected[i], data[i])
		}
	}

	if rec.IsCapturing() {
		t.Error("Should not be capturing after Stop")
	}
	if !opener.stream.closed {
		t.Error("Stream should be closed after Stop")
	}
}

func TestStartWhileActiveIsNoOp(t *testing.T) {
	opener := &fakeOpener{}
	rec, log := newTestRecorder(opener, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	opener.feed([]float32{1, 2})

	// Second Start must not reset the cursor or open a second stream
	if err := rec.Start(); err != nil {
		t.Errorf("Start while active should be a no-op, got error: %v", err)
	}

	if opener.opened != 1 {
		t.Errorf("Expected 1 stream opened, got %d", opener.opened)
	}
	if log.count("WARN") == 0 {
		t.Error("Start while active should log a warning")
	}

	data, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(data) != 2 {
		t.Errorf("Cursor was reset by redundant Start: expected 2 samples, got %d", len(data))
	}
}

func TestStopIdempotent(t *testing.T) {
	opener := &fakeOpener{}
	rec, log := newTestRecorder(opener, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	opener.feed([]float32{1, 2})

	first, err := rec.Stop()
	if err != nil {
		t.Fatalf("First Stop failed: %v", err)
	}
	if len(first) != 2 {
		t.Errorf("Expected 2 samples from first Stop, got %d", len(first))
	}

	// Second Stop: empty result, no error, a warning
	second, err := rec.Stop()
	if err != nil {
		t.Errorf("Second Stop should not fail, got: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("Expected empty result from second Stop, got %d samples", len(second))
	}
	if log.count("WARN") == 0 {
		t.Error("Second Stop should log a warning")
	}
}

func TestStopWithoutStart(t *testing.T) {
	opener := &fakeOpener{}
	rec, _ := newTestRecorder(opener, nil)

	data, err := rec.Stop()
	if err != nil {
		t.Errorf("Stop without Start should not fail, got: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty result, got %d samples", len(data))
	}
}

func TestStopWithNothingCaptured(t *testing.T) {
	opener := &fakeOpener{}
	rec, _ := newTestRecorder(opener, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Session was live but the device delivered nothing
	_, err := rec.Stop()
	if !errors.Is(err, ErrNoAudioCaptured) {
		t.Errorf("Expected ErrNoAudioCaptured, got %v", err)
	}

	// The recorder is still fully torn down
	if rec.IsCapturing() {
		t.Error("Should not be capturing after failed Stop")
	}
}

func TestOpenFailureUnwinds(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("device busy")}
	rec, _ := newTestRecorder(opener, nil)

	err := rec.Start()
	if !errors.Is(err, ErrCaptureStart) {
		t.Fatalf("Expected ErrCaptureStart, got %v", err)
	}

	if rec.IsCapturing() {
		t.Error("Should not be capturing after failed Start")
	}
	if rec.GetState() != Idle {
		t.Errorf("Expected Idle after failed Start, got %v", rec.GetState())
	}

	// Recovery: a later Start must succeed immediately
	opener.openErr = nil
	if err := rec.Start(); err != nil {
		t.Errorf("Start after recovery failed: %v", err)
	}
}

func TestStartStreamFailureClosesHandle(t *testing.T) {
	opener := &fakeOpener{startErr: errors.New("stream refused")}
	rec, _ := newTestRecorder(opener, nil)

	err := rec.Start()
	if !errors.Is(err, ErrCaptureStart) {
		t.Fatalf("Expected ErrCaptureStart, got %v", err)
	}

	if !opener.stream.closed {
		t.Error("Stream handle should be closed after Start failure")
	}
	if rec.IsCapturing() {
		t.Error("Should not be capturing after Start failure")
	}
}

func TestOverflowTruncatesAndNotifiesOnce(t *testing.T) {
	var mu sync.Mutex
	var notifications []string
	notified := make(chan struct{}, 4)

	opener := &fakeOpener{}
	rec, _ := newTestRecorder(opener, func(msg string) {
		mu.Lock()
		notifications = append(notifications, msg)
		mu.Unlock()
		notified <- struct{}{}
	})

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Capacity is 4; the second chunk's 5th sample overflows
	opener.feed([]float32{1, 2, 3})
	opener.feed([]float32{4, 5})
	opener.feed([]float32{6}) // dropped, no second notification

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("Overflow notifier did not fire")
	}

	if rec.GetState() != Overflowed {
		t.Errorf("Expected Overflowed state, got %v", rec.GetState())
	}
	if !rec.IsCapturing() {
		t.Error("Should still report capturing while the stream awaits teardown")
	}

	data, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop after overflow failed: %v", err)
	}

	expected := []float32{1, 2, 3}
	if len(data) != len(expected) {
		t.Fatalf("Expected %d truncated samples, got %d", len(expected), len(data))
	}
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, expected[i], data[i])
		}
	}

	// Give a second (erroneous) notification a moment to show up
	select {
	case <-notified:
		t.Error("Notifier fired more than once")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(notifications) != 1 {
		t.Errorf("Expected exactly 1 notification, got %d", len(notifications))
	}
}

func TestTeardownFailureIsNotFatal(t *testing.T) {
	opener := &fakeOpener{
		teardown: &fakeStream{
			stopErr:  errors.New("device vanished"),
			closeErr: errors.New("device vanished"),
		},
	}
	rec, log := newTestRecorder(opener, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	opener.feed([]float32{1, 2})

	// Teardown errors are logged, the captured audio still comes back
	data, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop should succeed despite teardown errors, got: %v", err)
	}
	if len(data) != 2 {
		t.Errorf("Expected 2 samples, got %d", len(data))
	}
	if log.count("WARN") < 2 {
		t.Errorf("Expected stop and close warnings, got %d warnings", log.count("WARN"))
	}

	// The handle must not linger: a new session can start cleanly
	if rec.IsCapturing() {
		t.Error("Recorder should not believe a stream is still open")
	}
	if err := rec.Start(); err != nil {
		t.Errorf("Start after messy teardown failed: %v", err)
	}
}

func TestBufferResetAtSessionStart(t *testing.T) {
	opener := &fakeOpener{}
	rec, _ := newTestRecorder(opener, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	opener.feed([]float32{1, 2, 3, 4})
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// Second session starts from a clean cursor
	if err := rec.Start(); err != nil {
		t.Fatalf("Second Start failed: %v", err)
	}
	opener.feed([]float32{9})

	data, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(data) != 1 || data[0] != 9 {
		t.Errorf("Expected [9], got %v", data)
	}
}

func TestConcurrentStopAndWrite(t *testing.T) {
	opener := &fakeOpener{}
	cfg := Config{DeviceID: -1, SampleRate: 16000, Channels: 1, MaxDuration: time.Second}
	rec := NewRecorder(opener, cfg, &testLogger{}, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		chunk := make([]float32, 64)
		for i := 0; i < 50; i++ {
			opener.feed(chunk)
		}
	}()

	// Stop races with the producer; the guard serializes them
	if _, err := rec.Stop(); err != nil && !errors.Is(err, ErrNoAudioCaptured) {
		t.Errorf("Stop failed: %v", err)
	}
	<-done
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{Idle, "Idle"},
		{Active, "Active"},
		{Overflowed, "Overflowed"},
		{Stopping, "Stopping"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
