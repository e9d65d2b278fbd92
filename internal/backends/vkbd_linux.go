//go:build linux

package backends

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"scrivo/internal/inject"
)

// VirtualKeyboardInjector types text through the Wayland virtual-keyboard
// protocol via wtype, which owns the keymap upload and keysym mapping.
type VirtualKeyboardInjector struct {
	binary string
}

// NewVirtualKeyboardInjector wires the injector; binary defaults to wtype.
func NewVirtualKeyboardInjector(binary string) *VirtualKeyboardInjector {
	if binary == "" {
		binary = "wtype"
	}
	return &VirtualKeyboardInjector{binary: binary}
}

func (i *VirtualKeyboardInjector) Method() inject.Method { return inject.VirtualKeyboard }

// Remediation names the user action for fatal failures of this method.
func (i *VirtualKeyboardInjector) Remediation() string {
	return "install wtype and run under a compositor that exposes zwp_virtual_keyboard_v1"
}

// Warm verifies the binary exists so the first attempt does not pay the
// PATH lookup.
func (i *VirtualKeyboardInjector) Warm(_ context.Context) error {
	_, err := exec.LookPath(i.binary)
	return err
}

func (i *VirtualKeyboardInjector) Attempt(ctx context.Context, text string, _ *inject.Context) *inject.AttemptError {
	cmd := exec.CommandContext(ctx, i.binary, "--", text)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return inject.Fatal(fmt.Errorf("%s unavailable: %w", i.binary, err), i.Remediation())
		}
		trimmed := strings.TrimSpace(string(out))
		if strings.Contains(trimmed, "virtual keyboard") || strings.Contains(trimmed, "protocol") {
			return inject.Fatal(fmt.Errorf("%s: %s", i.binary, trimmed), i.Remediation())
		}
		if trimmed != "" {
			return inject.Transientf("%s failed: %v (%s)", i.binary, err, trimmed)
		}
		return inject.Transientf("%s failed: %v", i.binary, err)
	}
	return nil
}
