//go:build linux

package backends

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"scrivo/internal/inject"
)

const (
	kwinDest      = "org.kde.KWin"
	kwinPath      = "/org/kde/KWin/FakeInput"
	kwinFakeIface = "org.kde.kwin.FakeInput"
)

// KwinFakeInputInjector types text through KWin's fake-input interface.
// KDE gates the interface behind a one-time authentication call; a denial
// is permanent for the session.
type KwinFakeInputInjector struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	authed bool
	denied bool
}

func NewKwinFakeInputInjector() *KwinFakeInputInjector {
	return &KwinFakeInputInjector{}
}

func (i *KwinFakeInputInjector) Method() inject.Method { return inject.KwinFakeInput }

func (i *KwinFakeInputInjector) Remediation() string {
	return "grant KWin fake-input permission when prompted, or enable it in KDE system settings"
}

// Warm performs the authentication handshake so the first injection does
// not stall on the KWin prompt.
func (i *KwinFakeInputInjector) Warm(ctx context.Context) error {
	return i.ensureAuth(ctx)
}

func (i *KwinFakeInputInjector) Attempt(ctx context.Context, text string, _ *inject.Context) *inject.AttemptError {
	if err := i.ensureAuth(ctx); err != nil {
		i.mu.Lock()
		denied := i.denied
		i.mu.Unlock()
		if denied {
			return inject.Fatal(err, i.Remediation())
		}
		return inject.Transientf("kwin fake-input auth: %v", err)
	}

	i.mu.Lock()
	conn := i.conn
	i.mu.Unlock()

	obj := conn.Object(kwinDest, kwinPath)
	for _, r := range text {
		sym := keysymFor(r)
		for _, state := range []uint32{keyStatePressed, keyStateReleased} {
			call := obj.CallWithContext(ctx, kwinFakeIface+".keyboardKeySym", 0, sym, state)
			if call.Err != nil {
				return inject.Transientf("kwin keyboardKeySym: %v", call.Err)
			}
		}
	}
	return nil
}

func (i *KwinFakeInputInjector) ensureAuth(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.denied {
		return fmt.Errorf("kwin fake-input access denied")
	}
	if i.authed {
		return nil
	}

	if i.conn == nil {
		conn, err := dbus.SessionBus()
		if err != nil {
			return fmt.Errorf("connect session bus: %w", err)
		}
		i.conn = conn
	}

	obj := i.conn.Object(kwinDest, kwinPath)
	var granted bool
	call := obj.CallWithContext(ctx, kwinFakeIface+".authenticate", 0,
		"scrivo", "inject dictated text into the focused application")
	if call.Err != nil {
		return fmt.Errorf("authenticate: %w", call.Err)
	}
	if err := call.Store(&granted); err != nil {
		return fmt.Errorf("authenticate result: %w", err)
	}
	if !granted {
		i.denied = true
		return fmt.Errorf("kwin fake-input access denied")
	}
	i.authed = true
	return nil
}
