//go:build linux

package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"scrivo/internal/config"
)

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkAccessibilityBus())
	checks = append(checks, checkPortalService())

	for name, raw := range map[string]string{
		"clipboard.copy_cmd":  cfg.Config.Clipboard.CopyCmd,
		"clipboard.paste_cmd": cfg.Config.Clipboard.PasteCmd,
		"clipboard.clear_cmd": cfg.Config.Clipboard.ClearCmd,
	} {
		cmd, err := config.Command(raw)
		if err != nil {
			checks = append(checks, Check{Name: name, Pass: false, Message: err.Error()})
			continue
		}
		checks = append(checks, checkCommand(cmd.Argv, name))
	}

	checks = append(checks, checkBinary("wtype", "virtual keyboard typing available"))
	checks = append(checks, checkDesktopTooling(cfg.Config))

	return Report{Checks: checks}
}

// checkAccessibilityBus asks the session bus for the AT-SPI bus address,
// the same handshake the injectors perform.
func checkAccessibilityBus() Check {
	const name = "a11y.bus"

	conn, err := dbus.SessionBus()
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("session bus unavailable: %v", err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var address string
	obj := conn.Object("org.a11y.Bus", "/org/a11y/bus")
	if err := obj.CallWithContext(ctx, "org.a11y.Bus.GetAddress", 0).Store(&address); err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("accessibility bus not answering: %v", err)}
	}
	if strings.TrimSpace(address) == "" {
		return Check{Name: name, Pass: false, Message: "accessibility bus returned an empty address"}
	}
	return Check{Name: name, Pass: true, Message: "accessibility bus reachable"}
}

// checkPortalService verifies xdg-desktop-portal owns its bus name.
func checkPortalService() Check {
	const name = "portal.service"

	conn, err := dbus.SessionBus()
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("session bus unavailable: %v", err)}
	}

	var owned bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0,
		"org.freedesktop.portal.Desktop").Store(&owned)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("NameHasOwner failed: %v", err)}
	}
	if !owned {
		return Check{Name: name, Pass: false, Message: "xdg-desktop-portal is not running"}
	}
	return Check{Name: name, Pass: true, Message: "xdg-desktop-portal is running"}
}

// checkDesktopTooling validates the compositor-specific helper for the
// detected desktop; generic sessions need no extra tool.
func checkDesktopTooling(cfg config.Config) Check {
	const name = "desktop.tooling"

	if strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) != "" {
		if _, err := exec.LookPath("hyprctl"); err != nil {
			return Check{Name: name, Pass: false, Message: "Hyprland session but hyprctl not in PATH"}
		}
		return Check{Name: name, Pass: true, Message: "hyprctl available for Hyprland paste shortcut"}
	}

	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	if strings.Contains(desktop, "kde") || strings.Contains(desktop, "plasma") {
		if _, err := exec.LookPath("kdotool"); err != nil {
			return Check{Name: name, Pass: false, Message: "KDE session but kdotool not in PATH; app identification degraded"}
		}
		return Check{Name: name, Pass: true, Message: "kdotool available for KDE app identification"}
	}

	if cfg.Methods.AllowYdotool {
		if _, err := exec.LookPath("ydotool"); err != nil {
			return Check{Name: name, Pass: false, Message: "ydotool enabled but not in PATH"}
		}
		return Check{Name: name, Pass: true, Message: "ydotool available for paste shortcut"}
	}

	return Check{Name: name, Pass: true, Message: "no compositor-specific tooling required"}
}
