//go:build windows

package app

import (
	"context"
	"fmt"
	"log/slog"

	"scrivo/internal/backends"
	"scrivo/internal/clipboard"
	"scrivo/internal/config"
	"scrivo/internal/focus"
	"scrivo/internal/inject"
)

type platformStack struct {
	registry *inject.Registry
	provider focus.Provider
	guardian *clipboard.Guardian
	closers  []func() error
}

// buildPlatform assembles the Windows injection stack.
func buildPlatform(_ context.Context, cfg config.Config, logger *slog.Logger) (platformStack, error) {
	var stack platformStack

	injectors, desktop := backends.Detect(backends.DetectOptions{
		AllowNoOp: cfg.Methods.AllowNoOp,
	}, logger)
	if len(injectors) == 0 {
		return stack, fmt.Errorf("no injection method available; run `scrivo doctor`")
	}
	stack.registry = inject.NewRegistry(desktop, injectors)

	stack.provider = focus.NewCachedProvider(focus.NewWindowsProvider(), 0)

	backend, err := clipboard.NewBackend()
	if err != nil {
		return stack, fmt.Errorf("clipboard backend: %w", err)
	}
	stack.guardian = clipboard.NewGuardian(backend, nil, logger)

	return stack, nil
}
