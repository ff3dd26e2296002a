package clipboard

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>

int get_pasteboard_change_count() {
    return (int)[[NSPasteboard generalPasteboard] changeCount];
}
*/
import "C"
import (
	"fmt"
	"time"

	"github.com/go-vgo/robotgo"
)

// Manager types text into the active application via clipboard paste,
// restoring the user's clipboard afterwards when it is safe to do so
type Manager struct {
	savedChangeCount int
	savedContent     string
	restoreTimeout   time.Duration
	splitSize        int
	splitInterval    time.Duration
	prefixKey        string
	autoSend         bool
}

// Config holds clipboard manager configuration
type Config struct {
	RestoreTimeout time.Duration // Timeout for clipboard restoration (default: 500ms)
	SplitSize      int           // Maximum characters per paste operation (default: 500)
	SplitInterval  time.Duration // Interval between split pastes (default: 50ms)
	PrefixKey      string        // Key tapped before pasting (e.g. "t" to open a game chat box), "" to disable
	AutoSend       bool          // Press Enter after the final paste
}

// DefaultConfig returns the default clipboard configuration
func DefaultConfig() Config {
	return Config{
		RestoreTimeout: 500 * time.Millisecond,
		SplitSize:      500,
		SplitInterval:  50 * time.Millisecond,
	}
}

// NewManager creates a new clipboard manager
func NewManager(config Config) *Manager {
	return &Manager{
		restoreTimeout: config.RestoreTimeout,
		splitSize:      config.SplitSize,
		splitInterval:  config.SplitInterval,
		prefixKey:      config.PrefixKey,
		autoSend:       config.AutoSend,
	}
}

// GetChangeCount returns the current pasteboard change count
func GetChangeCount() int {
	return int(C.get_pasteboard_change_count())
}

// save records the current clipboard state for later restoration
func (m *Manager) save() error {
	m.savedChangeCount = GetChangeCount()
	content, err := robotgo.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	m.savedContent = content
	return nil
}

// restore puts the saved content back unless the user touched the
// clipboard in the meantime
func (m *Manager) restore() {
	time.Sleep(m.restoreTimeout)

	// A change count one above the saved value means our paste was the
	// only modification; anything else means the user got there first.
	if GetChangeCount() == m.savedChangeCount+1 {
		robotgo.WriteAll(m.savedContent)
	}
}

// Paste types text into the active application. The clipboard is saved
// first and restored afterwards when untouched by the user. When a prefix
// key is configured it is tapped first (opening e.g. a chat box), and
// AutoSend finishes with Enter.
func (m *Manager) Paste(text string) error {
	if err := m.save(); err != nil {
		return fmt.Errorf("failed to save clipboard: %w", err)
	}

	if m.prefixKey != "" {
		robotgo.KeyTap(m.prefixKey)
		time.Sleep(50 * time.Millisecond)
	}

	for i, chunk := range m.splitText(text) {
		if i > 0 {
			time.Sleep(m.splitInterval)
		}

		robotgo.WriteAll(chunk)
		// Give the pasteboard a moment to settle before the key tap
		time.Sleep(10 * time.Millisecond)
		robotgo.KeyTap("v", "cmd")
	}

	if m.autoSend {
		time.Sleep(50 * time.Millisecond)
		robotgo.KeyTap("enter")
	}

	m.restore()
	return nil
}

// splitText splits text into chunks of at most splitSize characters,
// preferring sentence boundaries near the cut
func (m *Manager) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) <= m.splitSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + m.splitSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Look for a boundary in the last 50 characters of the window
		searchStart := end - 50
		if searchStart < start {
			searchStart = start
		}

		for i := end - 1; i >= searchStart; i-- {
			if isBreakRune(runes[i]) {
				end = i + 1
				break
			}
		}

		chunks = append(chunks, string(runes[start:end]))
		start = end
	}

	return chunks
}

func isBreakRune(r rune) bool {
	switch r {
	case '。', '、', '.', ',', '!', '?', '\n':
		return true
	}
	return false
}
