//go:build linux

package backends

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"scrivo/internal/atspi"
	"scrivo/internal/inject"
)

// Detect probes the running session and returns the usable injectors
// together with the detected desktop. A nil AT-SPI client disables the
// accessibility-based methods without failing detection.
func Detect(client *atspi.Client, opts DetectOptions, logger *slog.Logger) ([]inject.Injector, inject.Desktop) {
	desktop := detectDesktop()

	var injectors []inject.Injector
	if client != nil {
		injectors = append(injectors,
			NewAtspiInsertInjector(client),
			NewAtspiPasteInjector(client),
		)
	} else {
		logger.Warn("accessibility bus unavailable; AT-SPI methods disabled")
	}

	if dispatcher := detectPasteDispatcher(desktop, opts); dispatcher != nil {
		injectors = append(injectors, NewClipboardPasteInjector(dispatcher))
		logger.Debug("clipboard paste dispatcher selected", "dispatcher", dispatcher.Name())
	} else {
		logger.Warn("no paste dispatcher available; clipboard fallback disabled")
	}

	if _, err := exec.LookPath("wtype"); err == nil {
		injectors = append(injectors, NewVirtualKeyboardInjector("wtype"))
	}

	injectors = append(injectors, NewPortalEisInjector())

	if desktop == inject.DesktopKDE {
		injectors = append(injectors, NewKwinFakeInputInjector())
	}

	if opts.AllowNoOp {
		injectors = append(injectors, NoOpInjector{})
	}

	logger.Info("injection methods detected",
		"desktop", string(desktop),
		"methods", methodNamesOf(injectors),
	)
	return injectors, desktop
}

func detectDesktop() inject.Desktop {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return inject.DesktopHyprland
	}
	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	if strings.Contains(desktop, "kde") || strings.Contains(desktop, "plasma") {
		return inject.DesktopKDE
	}
	return inject.DesktopLinux
}

func detectPasteDispatcher(desktop inject.Desktop, opts DetectOptions) PasteDispatcher {
	if desktop == inject.DesktopHyprland {
		if _, err := exec.LookPath("hyprctl"); err == nil {
			return &HyprPasteDispatcher{Shortcut: opts.PasteShortcut}
		}
	}
	if opts.AllowYdotool {
		if _, err := exec.LookPath("ydotool"); err == nil {
			return YdotoolPasteDispatcher{}
		}
	}
	return nil
}
