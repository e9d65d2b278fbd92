//go:build windows

package backends

import (
	"context"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"scrivo/internal/inject"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1

	keyEventfKeyUp   = 0x0002
	keyEventfUnicode = 0x0004

	vkControl = 0x11
	vkV       = 0x56
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// winInput mirrors the Win32 INPUT struct; the trailing pad covers the
// union slack (MOUSEINPUT is larger than KEYBDINPUT).
type winInput struct {
	inputType uint32
	_         uint32
	ki        keyboardInput
	_         [8]byte
}

func sendInputs(events []winInput) error {
	if len(events) == 0 {
		return nil
	}
	sent, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(sent) != len(events) {
		return err
	}
	return nil
}

func unicodeKeystroke(unit uint16) [2]winInput {
	down := winInput{inputType: inputKeyboard, ki: keyboardInput{wScan: unit, dwFlags: keyEventfUnicode}}
	up := down
	up.ki.dwFlags |= keyEventfKeyUp
	return [2]winInput{down, up}
}

func virtualKeystroke(vk uint16, up bool) winInput {
	in := winInput{inputType: inputKeyboard, ki: keyboardInput{wVk: vk}}
	if up {
		in.ki.dwFlags = keyEventfKeyUp
	}
	return in
}

// SendInputInjector types text as KEYEVENTF_UNICODE events, one UTF-16
// unit per keystroke. It needs no clipboard and works in consoles that
// reject paste.
type SendInputInjector struct{}

func (SendInputInjector) Method() inject.Method { return inject.SendInput }

func (SendInputInjector) Attempt(ctx context.Context, text string, _ *inject.Context) *inject.AttemptError {
	units := utf16.Encode([]rune(text))
	events := make([]winInput, 0, len(units)*2)
	for _, u := range units {
		pair := unicodeKeystroke(u)
		events = append(events, pair[0], pair[1])
	}
	if err := ctx.Err(); err != nil {
		return inject.Transientf("cancelled before send: %v", err)
	}
	if err := sendInputs(events); err != nil {
		return inject.Transientf("SendInput: %v", err)
	}
	return nil
}

// UiAutomationInjector pastes seeded clipboard content with a synthetic
// Ctrl+V chord. The clipboard guard seeds and restores around it.
type UiAutomationInjector struct{}

func (UiAutomationInjector) Method() inject.Method { return inject.UiAutomation }

func (UiAutomationInjector) Attempt(ctx context.Context, _ string, _ *inject.Context) *inject.AttemptError {
	if err := ctx.Err(); err != nil {
		return inject.Transientf("cancelled before paste: %v", err)
	}
	events := []winInput{
		virtualKeystroke(vkControl, false),
		virtualKeystroke(vkV, false),
		virtualKeystroke(vkV, true),
		virtualKeystroke(vkControl, true),
	}
	if err := sendInputs(events); err != nil {
		return inject.Transientf("SendInput paste chord: %v", err)
	}
	return nil
}
