//go:build linux

package clipboard

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// NewBackend returns the default Linux backend, driving wl-clipboard.
func NewBackend() (Backend, error) {
	return NewCommandBackend(
		[]string{"wl-copy"},
		[]string{"wl-paste", "--no-newline"},
		[]string{"wl-copy", "--clear"},
	)
}

const (
	klipperDest   = "org.kde.klipper"
	klipperPath   = "/klipper"
	klipperMethod = "org.kde.klipper.klipper.clearClipboardHistory"
)

// ClearKlipperHistory asks KDE's clipboard-history manager to drop its
// entries so the injected text leaves no trace. Best-effort: absence of
// klipper is an error the caller is expected to ignore.
func ClearKlipperHistory(ctx context.Context) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	obj := conn.Object(klipperDest, klipperPath)
	if call := obj.CallWithContext(ctx, klipperMethod, 0); call.Err != nil {
		return fmt.Errorf("clear klipper history: %w", call.Err)
	}
	return nil
}
