//go:build linux

package focus

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"scrivo/internal/atspi"
)

// linuxProvider answers focus queries from the accessibility bus and
// resolves application ids through a per-compositor detector, falling
// back to the accessible's owning application name.
type linuxProvider struct {
	client *atspi.Client
	logger *slog.Logger
	// appDetect is the compositor-specific resolver, nil when none of
	// the detection tools is present.
	appDetect func(ctx context.Context) (App, error)
}

// NewLinuxProvider builds the provider for the detected session. client
// may be nil when no accessibility bus is reachable; focus state then
// degrades to unknown and confirmation events are unavailable.
func NewLinuxProvider(client *atspi.Client, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &linuxProvider{
		client:    client,
		logger:    logger,
		appDetect: detectAppResolver(),
	}
}

// detectAppResolver picks the window-manager query tool for this session.
func detectAppResolver() func(ctx context.Context) (App, error) {
	if strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) != "" {
		if _, err := exec.LookPath("hyprctl"); err == nil {
			return hyprAppID
		}
	}
	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	if strings.Contains(desktop, "kde") {
		if _, err := exec.LookPath("kdotool"); err == nil {
			return kdotoolAppID
		}
	}
	return nil
}

// Status reports whether the focused widget is editable. Bus errors
// degrade to unknown; an answering bus with no editable match is a
// definite non-editable.
func (p *linuxProvider) Status(ctx context.Context) (Status, error) {
	if p.client == nil {
		return StatusUnknown, nil
	}
	_, err := p.client.FocusedEditable(ctx)
	switch {
	case err == nil:
		return StatusEditable, nil
	case errors.Is(err, atspi.ErrNoFocusedEditable):
		return StatusNonEditable, nil
	default:
		p.logger.Debug("atspi focus query failed", "error", err.Error())
		return StatusUnknown, nil
	}
}

// ActiveApp resolves the foreground application id. A nil error with an
// unresolved App means nothing is focused; an error means detection
// itself failed and must stay distinguishable from the empty desktop.
func (p *linuxProvider) ActiveApp(ctx context.Context) (App, error) {
	if p.appDetect != nil {
		app, err := p.appDetect(ctx)
		if err == nil {
			return app, nil
		}
		p.logger.Debug("window-manager app detection failed; falling back to atspi", "error", err.Error())
	}

	if p.client == nil {
		return App{}, errors.New("focus: no application detector available")
	}
	acc, err := p.client.FocusedEditable(ctx)
	if errors.Is(err, atspi.ErrNoFocusedEditable) {
		return App{}, nil
	}
	if err != nil {
		return App{}, err
	}
	name, err := p.client.AppName(ctx, acc)
	if err != nil {
		return App{}, err
	}
	if strings.TrimSpace(name) == "" {
		return App{}, nil
	}
	return App{ID: name, Resolved: true}, nil
}

// TextChanges streams accessibility text-insertion events.
func (p *linuxProvider) TextChanges(ctx context.Context) (<-chan ChangeEvent, func(), error) {
	if p.client == nil {
		return nil, nil, ErrNoEventStream
	}
	raw, cancel, err := p.client.SubscribeTextInserted(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan ChangeEvent, 32)
	go func() {
		defer close(out)
		for text := range raw {
			select {
			case out <- ChangeEvent{Text: text}:
			default:
			}
		}
	}()
	return out, cancel, nil
}
