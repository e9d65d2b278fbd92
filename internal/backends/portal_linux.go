//go:build linux

package backends

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"scrivo/internal/inject"
)

const (
	portalDest        = "org.freedesktop.portal.Desktop"
	portalPath        = "/org/freedesktop/portal/desktop"
	portalRemoteIface = "org.freedesktop.portal.RemoteDesktop"
	portalReqIface    = "org.freedesktop.portal.Request"

	portalDeviceKeyboard = uint32(1)

	responseOK        = uint32(0)
	responseCancelled = uint32(1)
)

// Keysym constants for control characters; printable codepoints map per
// the X keysym rules (latin-1 direct, otherwise 0x01000000 | codepoint).
const (
	keysymReturn       = 0xff0d
	keysymTab          = 0xff09
	keysymUnicodeBase  = 0x01000000
	keyStatePressed    = uint32(1)
	keyStateReleased   = uint32(0)
	portalHandlePrefix = "scrivo"
)

// PortalEisInjector drives the xdg-desktop-portal RemoteDesktop session
// and synthesizes keysym events through it. The consent-gated session is
// built once (ideally during pre-warm) and reused.
type PortalEisInjector struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	session dbus.ObjectPath
	denied  bool
	token   atomic.Uint64
}

// NewPortalEisInjector wires the injector; the session is created lazily
// or via Warm.
func NewPortalEisInjector() *PortalEisInjector {
	return &PortalEisInjector{}
}

func (i *PortalEisInjector) Method() inject.Method { return inject.PortalEis }

// Remediation names the user action for fatal failures of this method.
func (i *PortalEisInjector) Remediation() string {
	return "authorize the remote-desktop portal prompt (xdg-desktop-portal must be running)"
}

// Warm performs the consent handshake ahead of time so the first
// injection does not block on a portal dialog.
func (i *PortalEisInjector) Warm(ctx context.Context) error {
	_, err := i.ensureSession(ctx)
	return err
}

func (i *PortalEisInjector) Attempt(ctx context.Context, text string, _ *inject.Context) *inject.AttemptError {
	session, err := i.ensureSession(ctx)
	if err != nil {
		i.mu.Lock()
		denied := i.denied
		i.mu.Unlock()
		if denied {
			return inject.Fatal(err, i.Remediation())
		}
		return inject.Transientf("portal session: %v", err)
	}

	i.mu.Lock()
	conn := i.conn
	i.mu.Unlock()

	obj := conn.Object(portalDest, portalPath)
	for _, r := range text {
		sym := keysymFor(r)
		for _, state := range []uint32{keyStatePressed, keyStateReleased} {
			call := obj.CallWithContext(ctx, portalRemoteIface+".NotifyKeyboardKeysym", 0,
				session, map[string]dbus.Variant{}, int32(sym), state)
			if call.Err != nil {
				// A dead session is rebuilt on the next attempt.
				i.mu.Lock()
				i.session = ""
				i.mu.Unlock()
				return inject.Transientf("portal keysym notify: %v", call.Err)
			}
		}
	}
	return nil
}

// ensureSession returns the live portal session, building one through
// the CreateSession/SelectDevices/Start handshake when needed.
func (i *PortalEisInjector) ensureSession(ctx context.Context) (dbus.ObjectPath, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.denied {
		return "", fmt.Errorf("remote-desktop portal access denied")
	}
	if i.session != "" {
		return i.session, nil
	}

	if i.conn == nil {
		conn, err := dbus.SessionBus()
		if err != nil {
			return "", fmt.Errorf("connect session bus: %w", err)
		}
		i.conn = conn
	}

	sessionToken := i.nextToken()
	results, err := i.requestCall(ctx, "CreateSession", map[string]dbus.Variant{
		"session_handle_token": dbus.MakeVariant(sessionToken),
	})
	if err != nil {
		return "", fmt.Errorf("CreateSession: %w", err)
	}
	session, err := sessionHandle(results)
	if err != nil {
		return "", err
	}

	if _, err := i.requestCall(ctx, "SelectDevices", map[string]dbus.Variant{
		"types": dbus.MakeVariant(portalDeviceKeyboard),
	}, session); err != nil {
		return "", fmt.Errorf("SelectDevices: %w", err)
	}

	if _, err := i.requestCall(ctx, "Start", map[string]dbus.Variant{}, session, ""); err != nil {
		if strings.Contains(err.Error(), "denied") || strings.Contains(err.Error(), "cancelled") {
			i.denied = true
		}
		return "", fmt.Errorf("Start: %w", err)
	}

	i.session = session
	return session, nil
}

// requestCall performs one portal method call and waits for the matching
// Request.Response signal, subscribing on the predictable handle path
// before calling so the response cannot be lost.
//
// Callers hold i.mu; the signal wait itself is bounded by ctx.
func (i *PortalEisInjector) requestCall(
	ctx context.Context,
	method string,
	options map[string]dbus.Variant,
	before ...interface{},
) (map[string]dbus.Variant, error) {
	token := i.nextToken()
	options["handle_token"] = dbus.MakeVariant(token)

	requestPath := expectedRequestPath(i.conn.Names()[0], token)
	match := []dbus.MatchOption{
		dbus.WithMatchInterface(portalReqIface),
		dbus.WithMatchMember("Response"),
		dbus.WithMatchObjectPath(requestPath),
	}
	if err := i.conn.AddMatchSignalContext(ctx, match...); err != nil {
		return nil, fmt.Errorf("add Response match: %w", err)
	}
	defer func() { _ = i.conn.RemoveMatchSignal(match...) }()

	signals := make(chan *dbus.Signal, 4)
	i.conn.Signal(signals)
	defer i.conn.RemoveSignal(signals)

	args := append(append([]interface{}{}, before...), options)
	obj := i.conn.Object(portalDest, portalPath)
	call := obj.CallWithContext(ctx, portalRemoteIface+"."+method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}

	for {
		select {
		case sig := <-signals:
			if sig == nil || sig.Path != requestPath || len(sig.Body) < 2 {
				continue
			}
			code, _ := sig.Body[0].(uint32)
			results, _ := sig.Body[1].(map[string]dbus.Variant)
			switch code {
			case responseOK:
				return results, nil
			case responseCancelled:
				return nil, fmt.Errorf("portal request cancelled by user")
			default:
				return nil, fmt.Errorf("portal request denied (code %d)", code)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (i *PortalEisInjector) nextToken() string {
	return fmt.Sprintf("%s_%d", portalHandlePrefix, i.token.Add(1))
}

// expectedRequestPath derives the handle path the portal will use for a
// request: sender unique name with separators flattened, plus the token.
func expectedRequestPath(sender string, token string) dbus.ObjectPath {
	flat := strings.ReplaceAll(strings.TrimPrefix(sender, ":"), ".", "_")
	return dbus.ObjectPath("/org/freedesktop/portal/desktop/request/" + flat + "/" + token)
}

func sessionHandle(results map[string]dbus.Variant) (dbus.ObjectPath, error) {
	v, ok := results["session_handle"]
	if !ok {
		return "", fmt.Errorf("portal response missing session_handle")
	}
	switch h := v.Value().(type) {
	case dbus.ObjectPath:
		return h, nil
	case string:
		return dbus.ObjectPath(h), nil
	default:
		return "", fmt.Errorf("session_handle has unexpected type %T", v.Value())
	}
}

// keysymFor maps a rune to its X keysym.
func keysymFor(r rune) uint32 {
	switch r {
	case '\n', '\r':
		return keysymReturn
	case '\t':
		return keysymTab
	}
	if r < 0x100 {
		return uint32(r)
	}
	return keysymUnicodeBase | uint32(r)
}
