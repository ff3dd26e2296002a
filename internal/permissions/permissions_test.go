package permissions

import "testing"

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{NotDetermined, "NotDetermined"},
		{Restricted, "Restricted"},
		{Denied, "Denied"},
		{Authorized, "Authorized"},
		{Status(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNewChecker(t *testing.T) {
	c := NewChecker()
	if c == nil {
		t.Fatal("Expected non-nil checker")
	}
}

func TestMicrophoneReturnsValidStatus(t *testing.T) {
	c := NewChecker()

	status := c.Microphone()
	if status < NotDetermined || status > Authorized {
		t.Errorf("Unexpected microphone status: %d", status)
	}
	t.Logf("Microphone permission: %v", status)
}

func TestAccessibilityReturnsValidStatus(t *testing.T) {
	c := NewChecker()

	status := c.Accessibility()
	if status != Authorized && status != Denied {
		t.Errorf("Accessibility status should be Authorized or Denied, got %v", status)
	}
	t.Logf("Accessibility permission: %v", status)
}

func TestCheckAll(t *testing.T) {
	c := NewChecker()

	mic, acc := c.CheckAll()
	if mic != (c.Microphone() == Authorized) {
		t.Error("CheckAll microphone result disagrees with Microphone()")
	}
	if acc != (c.Accessibility() == Authorized) {
		t.Error("CheckAll accessibility result disagrees with Accessibility()")
	}
}
