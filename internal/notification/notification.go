package notification

import (
	"fmt"
	"os/exec"
	"strings"
)

// Notification represents a macOS user notification
type Notification struct {
	Title   string
	Message string
}

// Manager delivers notifications via the macOS notification center
type Manager struct {
	appName string
}

// NewManager creates a new notification manager
func NewManager(appName string) *Manager {
	return &Manager{appName: appName}
}

// Send delivers a notification to the user
func (m *Manager) Send(n *Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	script := fmt.Sprintf(
		`display notification "%s" with title "%s"`,
		escapeAppleScript(n.Message),
		escapeAppleScript(n.Title),
	)

	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// Notify sends a message under the application's name
func (m *Manager) Notify(message string) error {
	return m.Send(&Notification{Title: m.appName, Message: message})
}

// RecordingTruncated tells the user the capture buffer filled and the
// recording was cut short. Wired as the recorder's overflow notifier.
func (m *Manager) RecordingTruncated(message string) {
	// Fire-and-forget: the capture path must never see an error from here
	_ = m.Notify(message)
}

// CaptureFailed reports a failed recording start or stop
func (m *Manager) CaptureFailed(reason string) error {
	message := "Recording failed"
	if reason != "" {
		message += ": " + reason
	}
	return m.Notify(message)
}

// TranscriptionFailed reports a failed transcription
func (m *Manager) TranscriptionFailed(reason string) error {
	message := "Transcription failed"
	if reason != "" {
		message += ": " + reason
	}
	return m.Notify(message)
}

// MicrophonePermissionDenied reports missing microphone access
func (m *Manager) MicrophonePermissionDenied() error {
	return m.Notify("Microphone access is denied. Please allow it in System Settings.")
}

// AccessibilityPermissionDenied reports missing accessibility access
func (m *Manager) AccessibilityPermissionDenied() error {
	return m.Notify("Accessibility permission is denied. Please allow it in System Settings.")
}

// DeviceNotFound reports a missing audio input device
func (m *Manager) DeviceNotFound() error {
	return m.Notify("No audio input device found. Please reconnect your microphone.")
}

// escapeAppleScript escapes special characters for AppleScript
func escapeAppleScript(s string) string {
	// Escape backslashes first to avoid double-escaping
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
