//go:build windows

package backends

import (
	"log/slog"

	"scrivo/internal/inject"
)

// Detect returns the Windows injector set. Both methods ride on
// user32 SendInput, so availability never varies at runtime.
func Detect(opts DetectOptions, logger *slog.Logger) ([]inject.Injector, inject.Desktop) {
	injectors := []inject.Injector{
		UiAutomationInjector{},
		SendInputInjector{},
	}
	if opts.AllowNoOp {
		injectors = append(injectors, NoOpInjector{})
	}
	logger.Info("injection methods detected",
		"desktop", string(inject.DesktopWindows),
		"methods", methodNamesOf(injectors),
	)
	return injectors, inject.DesktopWindows
}
