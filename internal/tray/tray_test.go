package tray

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestNewManager(t *testing.T) {
	m := NewManager(Config{})

	if m == nil {
		t.Fatal("Expected non-nil manager")
	}
	if m.GetState() != StateIdle {
		t.Errorf("Expected initial state StateIdle, got %v", m.GetState())
	}
}

func TestIconsRendered(t *testing.T) {
	m := NewManager(Config{})

	states := []State{StateIdle, StateRecording, StateProcessing}
	for _, state := range states {
		data := m.icons[state]
		if len(data) == 0 {
			t.Errorf("No icon rendered for state %d", state)
			continue
		}

		// Each icon must be a decodable 16x16 PNG
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Errorf("Icon for state %d is not valid PNG: %v", state, err)
			continue
		}
		bounds := img.Bounds()
		if bounds.Dx() != 16 || bounds.Dy() != 16 {
			t.Errorf("Expected 16x16 icon, got %dx%d", bounds.Dx(), bounds.Dy())
		}
	}
}

func TestRenderIconDistinctColors(t *testing.T) {
	a := renderIcon(color.RGBA{0xff, 0x00, 0x00, 0xff})
	b := renderIcon(color.RGBA{0x00, 0xff, 0x00, 0xff})

	if bytes.Equal(a, b) {
		t.Error("Icons of different colors should differ")
	}
}

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"quote", `a"b`, `a\"b`},
		{"backslash", `a\b`, `a\\b`},
		{"newline", "a\nb", `a\nb`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeAppleScript(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// Note: SetState and menu handling require a running systray event loop,
// which needs a window server. Those paths are exercised manually.
