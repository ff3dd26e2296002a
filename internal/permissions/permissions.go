package permissions

/*
#cgo CFLAGS: -x objective-c -fmodules
#cgo LDFLAGS: -framework AVFoundation -framework ApplicationServices

#import <AVFoundation/AVFoundation.h>
#import <ApplicationServices/ApplicationServices.h>

int check_microphone_permission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

int check_accessibility_permission() {
    Boolean isAccessibilityEnabled = AXIsProcessTrusted();
    return isAccessibilityEnabled ? 1 : 0;
}
*/
import "C"

import "os/exec"

// Status represents the state of a system permission
type Status int

const (
	// NotDetermined means the user hasn't been asked yet
	NotDetermined Status = 0
	// Restricted means the permission is restricted by parental controls
	Restricted Status = 1
	// Denied means the user has explicitly denied the permission
	Denied Status = 2
	// Authorized means the user has authorized the permission
	Authorized Status = 3
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case NotDetermined:
		return "NotDetermined"
	case Restricted:
		return "Restricted"
	case Denied:
		return "Denied"
	case Authorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// Checker queries macOS system permissions
type Checker struct{}

// NewChecker creates a new permission checker
func NewChecker() *Checker {
	return &Checker{}
}

// Microphone returns the microphone access status. Capture is disabled
// unless this is Authorized.
func (c *Checker) Microphone() Status {
	return Status(C.check_microphone_permission())
}

// Accessibility returns the accessibility access status. Hotkeys and
// paste simulation require Authorized.
func (c *Checker) Accessibility() Status {
	if C.check_accessibility_permission() == 1 {
		return Authorized
	}
	return Denied
}

// CheckAll returns whether microphone and accessibility access are granted
func (c *Checker) CheckAll() (micGranted, accGranted bool) {
	return c.Microphone() == Authorized, c.Accessibility() == Authorized
}

// OpenMicrophoneSettings opens the System Settings microphone privacy pane
func OpenMicrophoneSettings() error {
	return exec.Command("open",
		"x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone").Run()
}

// OpenAccessibilitySettings opens the System Settings accessibility privacy pane
func OpenAccessibilitySettings() error {
	return exec.Command("open",
		"x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility").Run()
}
