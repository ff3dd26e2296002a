package tray

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os/exec"
	"strings"
	"sync"

	"github.com/getlantern/systray"
)

// State represents the current application state
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

// Manager manages the system tray icon and menu
type Manager struct {
	mu              sync.RWMutex
	state           State
	onReadyCallback func()
	onRecordTest    func()
	onQuit          func()
	menuRecordTest  *systray.MenuItem
	menuQuit        *systray.MenuItem

	// Icon cache, one per state
	icons map[State][]byte
}

// Config holds tray manager configuration
type Config struct {
	OnReady      func() // Called when systray is ready for initialization
	OnRecordTest func()
	OnQuit       func()
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	return &Manager{
		state:           StateIdle,
		onReadyCallback: config.OnReady,
		onRecordTest:    config.OnRecordTest,
		onQuit:          config.OnQuit,
		icons: map[State][]byte{
			StateIdle:       renderIcon(color.RGBA{0xe3, 0xe3, 0xe3, 0xff}),
			StateRecording:  renderIcon(color.RGBA{0xf1, 0x3a, 0x39, 0xff}),
			StateProcessing: renderIcon(color.RGBA{0xf1, 0x9e, 0x39, 0xff}),
		},
	}
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// onReady is called when systray is ready
func (m *Manager) onReady() {
	m.updateIcon()
	systray.SetTooltip("VoxKey")

	m.menuRecordTest = systray.AddMenuItem("Record Test", "Record a short test clip")
	systray.AddSeparator()
	m.menuQuit = systray.AddMenuItem("Quit", "Quit the application")

	go m.handleMenuEvents()

	if m.onReadyCallback != nil {
		m.onReadyCallback()
	}
}

// onExit is called when systray is exiting
func (m *Manager) onExit() {}

// handleMenuEvents handles menu item clicks
func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuRecordTest.ClickedCh:
			if m.onRecordTest != nil {
				m.onRecordTest()
			}
		case <-m.menuQuit.ClickedCh:
			if m.onQuit != nil {
				m.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

// SetState updates the tray icon based on the current state
func (m *Manager) SetState(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.updateIcon()
}

// GetState returns the current tray state
func (m *Manager) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// updateIcon refreshes the icon and tooltip for the current state.
// Caller holds m.mu (or calls during onReady before concurrency starts).
func (m *Manager) updateIcon() {
	systray.SetIcon(m.icons[m.state])

	switch m.state {
	case StateIdle:
		systray.SetTooltip("VoxKey - idle")
	case StateRecording:
		systray.SetTooltip("VoxKey - recording")
	case StateProcessing:
		systray.SetTooltip("VoxKey - processing")
	}
}

// Quit quits the system tray
func (m *Manager) Quit() {
	systray.Quit()
}

// ShowNotification shows a notification using the macOS Notification Center
func (m *Manager) ShowNotification(title, message string) {
	log.Printf("Notification: %s - %s", title, message)

	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(message),
		escapeAppleScript(title))
	exec.Command("osascript", "-e", script).Run()
}

// ShowError shows an error notification
func (m *Manager) ShowError(message string) {
	m.ShowNotification("VoxKey Error", message)
}

// escapeAppleScript escapes special characters for AppleScript
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// renderIcon produces a 16x16 rounded-square PNG in the given color,
// avoiding a dependency on icon files next to the executable
func renderIcon(c color.RGBA) []byte {
	const size = 16

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 2; y < size-2; y++ {
		for x := 2; x < size-2; x++ {
			corner := (x < 4 || x >= size-4) && (y < 4 || y >= size-4)
			if !corner {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
