//go:build linux

package focus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// activeWindow is the subset of the hyprctl activewindow contract needed
// for application identification.
type activeWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// HyprActiveWindow fetches the focused window from hyprctl. An empty
// reply ({} with no address) means no window holds focus.
func HyprActiveWindow(ctx context.Context) (activeWindow, bool, error) {
	out, err := runSubprocess(ctx, "hyprctl", "-j", "activewindow")
	if err != nil {
		return activeWindow{}, false, err
	}

	var window activeWindow
	if err := json.Unmarshal(out, &window); err != nil {
		return activeWindow{}, false, fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	if window.Address == "" {
		return activeWindow{}, false, nil
	}
	return window, true, nil
}

// hyprAppID resolves the foreground application class via hyprctl.
func hyprAppID(ctx context.Context) (App, error) {
	window, focused, err := HyprActiveWindow(ctx)
	if err != nil {
		return App{}, err
	}
	if !focused {
		return App{}, nil
	}
	id := window.Class
	if id == "" {
		id = window.InitialClass
	}
	if id == "" {
		return App{}, nil
	}
	return App{ID: id, Resolved: true}, nil
}

// kdotoolAppID resolves the foreground application class on KDE via
// kdotool.
func kdotoolAppID(ctx context.Context) (App, error) {
	winOut, err := runSubprocess(ctx, "kdotool", "getactivewindow")
	if err != nil {
		return App{}, err
	}
	windowID := strings.TrimSpace(string(winOut))
	if windowID == "" {
		return App{}, nil
	}

	classOut, err := runSubprocess(ctx, "kdotool", "getwindowclassname", windowID)
	if err != nil {
		return App{}, err
	}
	class := strings.TrimSpace(string(classOut))
	if class == "" {
		return App{}, nil
	}
	return App{ID: class, Resolved: true}, nil
}

// runSubprocess executes a detection tool under ctx, keeping stderr in
// the error for diagnostics.
func runSubprocess(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			trimmed := strings.TrimSpace(string(exitErr.Stderr))
			if trimmed != "" {
				return nil, fmt.Errorf("%s %v failed: %w (%s)", name, args, err, trimmed)
			}
		}
		return nil, fmt.Errorf("%s %v failed: %w", name, args, err)
	}
	return out, nil
}
