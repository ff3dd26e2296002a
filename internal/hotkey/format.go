package hotkey

import "golang.design/x/hotkey"

// ConflictInfo describes a known macOS shortcut a configured hotkey
// collides with
type ConflictInfo struct {
	Name        string
	Description string
	Modifiers   []hotkey.Modifier
	Key         hotkey.Key
}

var knownConflicts = []ConflictInfo{
	{
		Name:        "Spotlight",
		Description: "macOS Spotlight search",
		Modifiers:   []hotkey.Modifier{hotkey.ModCmd},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "IME Switch",
		Description: "Input method editor switch",
		Modifiers:   []hotkey.Modifier{hotkey.ModCmd},
		Key:         hotkey.KeySpace,
	},
	{
		Name:        "Force Quit",
		Description: "macOS Force Quit",
		Modifiers:   []hotkey.Modifier{hotkey.ModCmd, hotkey.ModOption},
		Key:         hotkey.KeyEscape,
	},
}

// CheckConflicts returns the known system shortcuts that match the given
// hotkey combination
func CheckConflicts(modifiers []hotkey.Modifier, key hotkey.Key) []ConflictInfo {
	var conflicts []ConflictInfo
	for _, known := range knownConflicts {
		if key == known.Key && sameModifiers(modifiers, known.Modifiers) {
			conflicts = append(conflicts, known)
		}
	}
	return conflicts
}

func sameModifiers(a, b []hotkey.Modifier) bool {
	if len(a) != len(b) {
		return false
	}

	set := make(map[hotkey.Modifier]bool, len(a))
	for _, mod := range a {
		set[mod] = true
	}
	for _, mod := range b {
		if !set[mod] {
			return false
		}
	}
	return true
}

// FormatHotkey returns a human-readable string representation of the hotkey
func FormatHotkey(modifiers []hotkey.Modifier, key hotkey.Key) string {
	result := ""

	for _, mod := range modifiers {
		switch mod {
		case hotkey.ModCtrl:
			result += "⌃"
		case hotkey.ModShift:
			result += "⇧"
		case hotkey.ModOption:
			result += "⌥"
		case hotkey.ModCmd:
			result += "⌘"
		}
	}

	return result + keyToString(key)
}

// keyToString converts a hotkey.Key to a display string
func keyToString(key hotkey.Key) string {
	special := map[hotkey.Key]string{
		hotkey.KeySpace:  "Space",
		hotkey.KeyEscape: "Esc",
		hotkey.KeyReturn: "Return",
		hotkey.KeyTab:    "Tab",
		hotkey.KeyDelete: "Delete",
	}

	if name, ok := special[key]; ok {
		return name
	}

	if key >= hotkey.KeyA && key <= hotkey.KeyZ {
		return string(rune('A' + int(key-hotkey.KeyA)))
	}

	if key >= hotkey.Key0 && key <= hotkey.Key9 {
		return string(rune('0' + int(key-hotkey.Key0)))
	}

	return "Unknown"
}
