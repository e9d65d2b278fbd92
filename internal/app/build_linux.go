//go:build linux

package app

import (
	"context"
	"fmt"
	"log/slog"

	"scrivo/internal/atspi"
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

// buildPlatform assembles the Linux injection stack. A missing
// accessibility bus degrades (no AT-SPI methods, unknown focus state)
// instead of failing the build.
func buildPlatform(ctx context.Context, cfg config.Config, logger *slog.Logger) (platformStack, error) {
	var stack platformStack

	client, err := atspi.Connect(ctx)
	if err != nil {
		logger.Warn("accessibility bus connect failed", "error", err.Error())
		client = nil
	} else {
		stack.closers = append(stack.closers, client.Close)
	}

	injectors, desktop := backends.Detect(client, backends.DetectOptions{
		AllowYdotool:  cfg.Methods.AllowYdotool,
		AllowNoOp:     cfg.Methods.AllowNoOp,
		PasteShortcut: cfg.Methods.PasteShortcut,
	}, logger)
	if len(injectors) == 0 {
		return stack, fmt.Errorf("no injection method available; run `scrivo doctor`")
	}
	stack.registry = inject.NewRegistry(desktop, injectors)

	stack.provider = focus.NewCachedProvider(focus.NewLinuxProvider(client, logger), 0)

	backend, err := commandBackend(cfg.Clipboard)
	if err != nil {
		return stack, fmt.Errorf("clipboard commands: %w", err)
	}
	var clearHistory func(context.Context) error
	if cfg.Clipboard.ClearHistory && desktop == inject.DesktopKDE {
		clearHistory = clipboard.ClearKlipperHistory
	}
	stack.guardian = clipboard.NewGuardian(backend, clearHistory, logger)

	return stack, nil
}

func commandBackend(cfg config.ClipboardConfig) (clipboard.Backend, error) {
	copyCmd, err := config.Command(cfg.CopyCmd)
	if err != nil {
		return nil, err
	}
	pasteCmd, err := config.Command(cfg.PasteCmd)
	if err != nil {
		return nil, err
	}
	clearCmd, err := config.Command(cfg.ClearCmd)
	if err != nil {
		return nil, err
	}
	return clipboard.NewCommandBackend(copyCmd.Argv, pasteCmd.Argv, clearCmd.Argv)
}
