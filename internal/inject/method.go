// Package inject ranks, executes, and confirms text injection attempts
// across the platform-specific delivery methods.
package inject

import "fmt"

// Method identifies one text delivery mechanism. The set is closed;
// ordering between methods is decided per application by the cache,
// never by declaration order.
type Method int

const (
	AtspiInsert Method = iota
	AtspiPaste
	ClipboardPasteFallback
	VirtualKeyboard
	PortalEis
	KwinFakeInput
	UiAutomation
	SendInput
	NoOp
)

var methodNames = map[Method]string{
	AtspiInsert:            "atspi_insert",
	AtspiPaste:             "atspi_paste",
	ClipboardPasteFallback: "clipboard_paste",
	VirtualKeyboard:        "virtual_keyboard",
	PortalEis:              "portal_eis",
	KwinFakeInput:          "kwin_fake_input",
	UiAutomation:           "ui_automation",
	SendInput:              "send_input",
	NoOp:                   "noop",
}

// String returns the stable wire/log name of the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod converts a wire/log name back to a Method.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return NoOp, fmt.Errorf("unknown injection method %q", name)
}

// ClipboardBased reports whether the method delivers text by pasting a
// seeded clipboard. The manager wraps these attempts in a ClipboardGuard.
func (m Method) ClipboardBased() bool {
	switch m {
	case AtspiPaste, ClipboardPasteFallback, UiAutomation:
		return true
	default:
		return false
	}
}

// PasteShaped reports whether the method lands text as one paste action
// rather than as a synthetic keystroke stream.
func (m Method) PasteShaped() bool {
	return m.ClipboardBased()
}

// Desktop is the coarse platform/compositor classification used to pick
// the base method order.
type Desktop string

const (
	DesktopHyprland Desktop = "hyprland"
	DesktopKDE      Desktop = "kde"
	DesktopLinux    Desktop = "linux"
	DesktopWindows  Desktop = "windows"
	DesktopUnknown  Desktop = "unknown"
)

// BaseOrder returns the platform-preferred method order before per-app
// success-rate re-sorting. Every method a platform can host appears here;
// availability filtering happens at registry construction.
func BaseOrder(d Desktop) []Method {
	switch d {
	case DesktopKDE:
		return []Method{AtspiInsert, AtspiPaste, PortalEis, KwinFakeInput, ClipboardPasteFallback, VirtualKeyboard}
	case DesktopHyprland:
		return []Method{AtspiInsert, AtspiPaste, ClipboardPasteFallback, VirtualKeyboard, PortalEis}
	case DesktopWindows:
		return []Method{UiAutomation, SendInput, ClipboardPasteFallback}
	case DesktopLinux, DesktopUnknown:
		return []Method{AtspiInsert, AtspiPaste, PortalEis, ClipboardPasteFallback, VirtualKeyboard}
	default:
		return []Method{AtspiInsert, AtspiPaste, PortalEis, ClipboardPasteFallback, VirtualKeyboard}
	}
}
