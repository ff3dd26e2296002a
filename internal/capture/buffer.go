package capture

import (
	"errors"
	"sync"
)

// ErrNoAudioCaptured is returned when a recording session ended with zero
// samples written to the buffer.
var ErrNoAudioCaptured = errors.New("no audio data captured")

// WriteResult reports the outcome of a single buffer write
type WriteResult int

const (
	// WriteOK means the chunk was copied in full
	WriteOK WriteResult = iota
	// WriteOverflow means the chunk did not fit and the buffer just
	// transitioned to the overflowed state (reported exactly once)
	WriteOverflow
	// WriteDropped means the buffer was already overflowed and the chunk
	// was discarded
	WriteDropped
)

// String returns the string representation of the result
func (r WriteResult) String() string {
	switch r {
	case WriteOK:
		return "OK"
	case WriteOverflow:
		return "Overflow"
	case WriteDropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

// Buffer is a fixed-capacity sample store shared between the audio callback
// (producer) and the control thread (consumer). The backing array is
// allocated once, so the write path never allocates; a chunk is either
// copied in full or rejected in full.
type Buffer struct {
	mu         sync.Mutex
	samples    []float32
	cursor     int
	overflowed bool
}

// NewBuffer creates a buffer that holds at most capacity samples.
// Capacity is fixed for the buffer's lifetime.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		samples: make([]float32, capacity),
	}
}

// Write copies chunk into the buffer at the write cursor. A chunk that
// would exceed the remaining capacity is rejected whole; the first
// rejection latches the buffer as overflowed and returns WriteOverflow,
// every later write returns WriteDropped. Safe to call from the audio
// callback concurrently with Read/Reset.
func (b *Buffer) Write(chunk []float32) WriteResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overflowed {
		return WriteDropped
	}

	if b.cursor+len(chunk) > len(b.samples) {
		b.overflowed = true
		return WriteOverflow
	}

	copy(b.samples[b.cursor:], chunk)
	b.cursor += len(chunk)
	return WriteOK
}

// Read returns a copy of the recorded region. The cursor is left in place;
// it is reset at the start of the next session, not here.
func (b *Buffer) Read() ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cursor == 0 {
		return nil, ErrNoAudioCaptured
	}

	out := make([]float32, b.cursor)
	copy(out, b.samples[:b.cursor])
	return out, nil
}

// Reset rewinds the write cursor and clears the overflow latch.
// Called at the start of each recording session.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cursor = 0
	b.overflowed = false
}

// Len returns the number of samples currently recorded
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Cap returns the fixed capacity of the buffer
func (b *Buffer) Cap() int {
	return len(b.samples)
}

// Overflowed returns whether a write has been rejected this session
func (b *Buffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}
