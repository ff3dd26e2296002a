package recognition

/*
#cgo CFLAGS: -I${SRCDIR}/../../whisper.cpp/include -I${SRCDIR}/../../whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../whisper.cpp/build/src -L${SRCDIR}/../../whisper.cpp/build/ggml/src -lwhisper -lggml -lm -Wl,-rpath,${SRCDIR}/../../whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../whisper.cpp/build/ggml/src
#include "whisper.h"
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"os"
	"sync"
	"unsafe"
)

// Recognizer turns a finite sequence of audio samples into text
type Recognizer interface {
	LoadModel(modelPath string) error
	Transcribe(samples []float32, sampleRate int) (string, error)
	Close() error
}

// WhisperRecognizer implements Recognizer using Whisper.cpp. It consumes
// the capture pipeline's float32 samples directly, no PCM conversion.
type WhisperRecognizer struct {
	ctx      *C.struct_whisper_context
	mu       sync.Mutex
	language string
}

// Config holds recognition configuration
type Config struct {
	Language string // "auto" for automatic detection
	Threads  int    // Number of threads, 0 = auto
}

// DefaultConfig returns the default recognition configuration
func DefaultConfig() Config {
	return Config{
		Language: "auto",
		Threads:  0,
	}
}

// NewWhisperRecognizer creates a new Whisper recognizer
func NewWhisperRecognizer(config Config) *WhisperRecognizer {
	return &WhisperRecognizer{
		language: config.Language,
	}
}

// LoadModel loads a Whisper model from the specified path
func (r *WhisperRecognizer) LoadModel(modelPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}

	cModelPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cModelPath))

	ctx := C.whisper_init_from_file(cModelPath)
	if ctx == nil {
		return fmt.Errorf("failed to load model from: %s", modelPath)
	}

	// Close old context if exists
	if r.ctx != nil {
		C.whisper_free(r.ctx)
	}

	r.ctx = ctx
	return nil
}

// Transcribe performs speech recognition on one completed recording.
// samples are mono float32 amplitudes in [-1, 1] at sampleRate Hz.
func (r *WhisperRecognizer) Transcribe(samples []float32, sampleRate int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx == nil {
		return "", fmt.Errorf("model not loaded")
	}

	if len(samples) == 0 {
		return "", fmt.Errorf("no samples to transcribe")
	}

	params := C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)

	cLanguage := C.CString(r.language)
	defer C.free(unsafe.Pointer(cLanguage))
	params.language = cLanguage
	params.translate = C.bool(false)

	result := C.whisper_full(
		r.ctx,
		params,
		(*C.float)(unsafe.Pointer(&samples[0])),
		C.int(len(samples)),
	)
	if result != 0 {
		return "", fmt.Errorf("whisper_full failed with code: %d", result)
	}

	nSegments := C.whisper_full_n_segments(r.ctx)

	var transcription string
	for i := 0; i < int(nSegments); i++ {
		text := C.whisper_full_get_segment_text(r.ctx, C.int(i))
		transcription += C.GoString(text)
	}

	return transcription, nil
}

// Close releases resources
func (r *WhisperRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx != nil {
		C.whisper_free(r.ctx)
		r.ctx = nil
	}

	return nil
}
