//go:build linux

package backends

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"scrivo/internal/focus"
	"scrivo/internal/inject"
)

// PasteDispatcher sends the paste keystroke to the focused window after
// the manager's guard has seeded the clipboard.
type PasteDispatcher interface {
	Paste(ctx context.Context) error
	Name() string
}

// ClipboardPasteInjector is the clipboard+paste fallback: clipboard
// seeding happens in the manager's guard, this injector only dispatches
// the paste keystroke.
type ClipboardPasteInjector struct {
	dispatcher PasteDispatcher
}

// NewClipboardPasteInjector wires the fallback with the best available
// keystroke dispatcher.
func NewClipboardPasteInjector(dispatcher PasteDispatcher) *ClipboardPasteInjector {
	return &ClipboardPasteInjector{dispatcher: dispatcher}
}

func (i *ClipboardPasteInjector) Method() inject.Method { return inject.ClipboardPasteFallback }

// Remediation names the user action for fatal failures of this method.
func (i *ClipboardPasteInjector) Remediation() string {
	return "install a paste dispatcher (hyprctl on Hyprland, or ydotool with the ydotoold daemon running)"
}

func (i *ClipboardPasteInjector) Attempt(ctx context.Context, _ string, _ *inject.Context) *inject.AttemptError {
	if i.dispatcher == nil {
		return inject.Fatal(fmt.Errorf("no paste dispatcher available"), i.Remediation())
	}
	if err := i.dispatcher.Paste(ctx); err != nil {
		return inject.Transientf("%s paste dispatch: %v", i.dispatcher.Name(), err)
	}
	return nil
}

// HyprPasteDispatcher sends Ctrl+V via hyprctl sendshortcut, addressed
// to the active window so a later focus change cannot misdirect it.
type HyprPasteDispatcher struct {
	Shortcut string
}

func (d *HyprPasteDispatcher) Name() string { return "hyprctl" }

func (d *HyprPasteDispatcher) Paste(ctx context.Context) error {
	window, focused, err := focus.HyprActiveWindow(ctx)
	if err != nil {
		return err
	}
	if !focused {
		return fmt.Errorf("no active window to paste into")
	}

	shortcut := strings.TrimSpace(d.Shortcut)
	if shortcut == "" {
		shortcut = "CTRL,V"
	}
	payload := fmt.Sprintf("%s,address:%s", shortcut, window.Address)

	cmd := exec.CommandContext(ctx, "hyprctl", "--quiet", "dispatch", "sendshortcut", payload)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			return fmt.Errorf("hyprctl sendshortcut failed: %w (%s)", err, trimmed)
		}
		return fmt.Errorf("hyprctl sendshortcut failed: %w", err)
	}
	return nil
}

// YdotoolPasteDispatcher is the last-resort key sender: Ctrl press, V
// tap, Ctrl release as uinput key codes.
type YdotoolPasteDispatcher struct{}

func (YdotoolPasteDispatcher) Name() string { return "ydotool" }

func (YdotoolPasteDispatcher) Paste(ctx context.Context) error {
	// 29 = KEY_LEFTCTRL, 47 = KEY_V.
	cmd := exec.CommandContext(ctx, "ydotool", "key", "29:1", "47:1", "47:0", "29:0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			return fmt.Errorf("ydotool key failed: %w (%s)", err, trimmed)
		}
		return fmt.Errorf("ydotool key failed: %w", err)
	}
	return nil
}
