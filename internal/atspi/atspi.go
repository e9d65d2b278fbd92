//go:build linux

// Package atspi is a thin client for the Linux accessibility bus: focused
// widget lookup, caret-positioned insert/paste on editable text, and
// text-changed event subscription.
package atspi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	a11yBusDest   = "org.a11y.Bus"
	a11yBusPath   = "/org/a11y/bus"
	a11yBusIface  = "org.a11y.Bus"
	registryDest  = "org.a11y.atspi.Registry"
	registryPath  = "/org/a11y/atspi/registry"
	rootPath      = "/org/a11y/atspi/accessible/root"
	ifaceAccess   = "org.a11y.atspi.Accessible"
	ifaceCollect  = "org.a11y.atspi.Collection"
	ifaceEditable = "org.a11y.atspi.EditableText"
	ifaceText     = "org.a11y.atspi.Text"
	ifaceRegistry = "org.a11y.atspi.Registry"
	ifaceEvObject = "org.a11y.atspi.Event.Object"
)

// AT-SPI match-rule constants (subset).
const (
	stateFocused   = 12
	matchAll       = 1
	sortCanonical  = 1
	eventTextInput = "object:text-changed:insert"
)

// ErrNoFocusedEditable reports that no focused widget implements
// EditableText. Distinct from connection errors: the bus answered.
var ErrNoFocusedEditable = errors.New("atspi: no focused editable widget")

// Accessible addresses one object on the accessibility bus: the owning
// connection's unique name plus the object path.
type Accessible struct {
	Dest string
	Path dbus.ObjectPath
}

// matchRule mirrors the AT-SPI ObjectMatchRule wire struct.
type matchRule struct {
	States              []int32
	StatesMatchType     int32
	Attributes          map[string]string
	AttributesMatchType int32
	Roles               []int32
	RolesMatchType      int32
	Interfaces          []string
	InterfacesMatchType int32
	Invert              bool
}

// Client holds one connection to the accessibility bus.
type Client struct {
	conn *dbus.Conn

	mu         sync.Mutex
	registered bool
}

// Connect resolves the accessibility bus address through the session bus
// and dials it.
func Connect(ctx context.Context) (*Client, error) {
	session, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	var address string
	obj := session.Object(a11yBusDest, a11yBusPath)
	if call := obj.CallWithContext(ctx, a11yBusIface+".GetAddress", 0); call.Err != nil {
		return nil, fmt.Errorf("resolve accessibility bus address: %w", call.Err)
	} else if err := call.Store(&address); err != nil {
		return nil, fmt.Errorf("decode accessibility bus address: %w", err)
	}

	conn, err := dbus.Connect(address)
	if err != nil {
		return nil, fmt.Errorf("connect accessibility bus: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// focusedMatches runs a Collection.GetMatches for focused widgets,
// optionally restricted to an interface.
func (c *Client) focusedMatches(ctx context.Context, iface string) ([]Accessible, error) {
	rule := matchRule{
		// States is a two-word bitset; Focused lives in the first word.
		States:              []int32{1 << stateFocused, 0},
		StatesMatchType:     matchAll,
		Attributes:          map[string]string{},
		AttributesMatchType: matchAll,
		Roles:               []int32{0, 0, 0, 0},
		RolesMatchType:      matchAll,
		InterfacesMatchType: matchAll,
	}
	if iface != "" {
		rule.Interfaces = []string{iface}
	}

	obj := c.conn.Object(registryDest, rootPath)
	call := obj.CallWithContext(ctx, ifaceCollect+".GetMatches", 0,
		rule, uint32(sortCanonical), int32(4), false)
	if call.Err != nil {
		return nil, fmt.Errorf("collection GetMatches: %w", call.Err)
	}

	var raw [][]interface{}
	if err := call.Store(&raw); err != nil {
		return nil, fmt.Errorf("decode GetMatches reply: %w", err)
	}

	matches := make([]Accessible, 0, len(raw))
	for _, entry := range raw {
		if acc, ok := accessibleFromEntry(entry); ok {
			matches = append(matches, acc)
		}
	}
	return matches, nil
}

// accessibleFromEntry decodes one GetMatches reply entry: the owning
// connection name (a plain bus string on the wire) and the object path.
func accessibleFromEntry(entry []interface{}) (Accessible, bool) {
	if len(entry) != 2 {
		return Accessible{}, false
	}
	dest, ok := entry[0].(string)
	if !ok {
		return Accessible{}, false
	}
	path, ok := entry[1].(dbus.ObjectPath)
	if !ok {
		return Accessible{}, false
	}
	return Accessible{Dest: dest, Path: path}, true
}

// FocusedEditable returns the focused widget implementing EditableText,
// or ErrNoFocusedEditable when the bus answers but nothing matches.
func (c *Client) FocusedEditable(ctx context.Context) (Accessible, error) {
	matches, err := c.focusedMatches(ctx, ifaceEditable)
	if err != nil {
		return Accessible{}, err
	}
	if len(matches) == 0 {
		return Accessible{}, ErrNoFocusedEditable
	}
	return matches[0], nil
}

// CaretOffset reads the caret position of a Text widget.
func (c *Client) CaretOffset(ctx context.Context, acc Accessible) (int32, error) {
	obj := c.conn.Object(acc.Dest, acc.Path)
	variant, err := obj.GetProperty(ifaceText + ".CaretOffset")
	if err != nil {
		return 0, fmt.Errorf("read caret offset: %w", err)
	}
	offset, ok := variant.Value().(int32)
	if !ok {
		return 0, fmt.Errorf("caret offset has unexpected type %T", variant.Value())
	}
	return offset, nil
}

// InsertText inserts text at the widget's caret via EditableText.
func (c *Client) InsertText(ctx context.Context, acc Accessible, text string) error {
	offset, err := c.CaretOffset(ctx, acc)
	if err != nil {
		// A caret-less editable still accepts insertion at 0.
		offset = 0
	}

	obj := c.conn.Object(acc.Dest, acc.Path)
	call := obj.CallWithContext(ctx, ifaceEditable+".InsertText", 0,
		offset, text, int32(len([]rune(text))))
	if call.Err != nil {
		return fmt.Errorf("EditableText.InsertText: %w", call.Err)
	}

	var accepted bool
	if err := call.Store(&accepted); err != nil {
		return fmt.Errorf("decode InsertText reply: %w", err)
	}
	if !accepted {
		return errors.New("EditableText.InsertText rejected by widget")
	}
	return nil
}

// PasteText pastes the clipboard at the widget's caret via EditableText.
func (c *Client) PasteText(ctx context.Context, acc Accessible) error {
	offset, err := c.CaretOffset(ctx, acc)
	if err != nil {
		offset = 0
	}

	obj := c.conn.Object(acc.Dest, acc.Path)
	call := obj.CallWithContext(ctx, ifaceEditable+".PasteText", 0, offset)
	if call.Err != nil {
		return fmt.Errorf("EditableText.PasteText: %w", call.Err)
	}

	var accepted bool
	if err := call.Store(&accepted); err != nil {
		return fmt.Errorf("decode PasteText reply: %w", err)
	}
	if !accepted {
		return errors.New("EditableText.PasteText rejected by widget")
	}
	return nil
}

// AppName resolves the owning application's accessible name for an
// accessible, used as the fallback application identifier.
func (c *Client) AppName(ctx context.Context, acc Accessible) (string, error) {
	obj := c.conn.Object(acc.Dest, acc.Path)
	call := obj.CallWithContext(ctx, ifaceAccess+".GetApplication", 0)
	if call.Err != nil {
		return "", fmt.Errorf("Accessible.GetApplication: %w", call.Err)
	}

	var appDest string
	var appPath dbus.ObjectPath
	if err := call.Store(&appDest, &appPath); err != nil {
		return "", fmt.Errorf("decode GetApplication reply: %w", err)
	}

	appObj := c.conn.Object(appDest, appPath)
	variant, err := appObj.GetProperty(ifaceAccess + ".Name")
	if err != nil {
		return "", fmt.Errorf("read application name: %w", err)
	}
	name, ok := variant.Value().(string)
	if !ok {
		return "", fmt.Errorf("application name has unexpected type %T", variant.Value())
	}
	return name, nil
}

// SubscribeTextInserted registers for object:text-changed:insert events
// and streams the inserted text. The returned cancel func tears down the
// match and the channel.
func (c *Client) SubscribeTextInserted(ctx context.Context) (<-chan string, func(), error) {
	if err := c.registerEvent(ctx); err != nil {
		return nil, nil, err
	}

	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(ifaceEvObject),
		dbus.WithMatchMember("TextChanged"),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, nil, fmt.Errorf("add TextChanged match: %w", err)
	}

	signals := make(chan *dbus.Signal, 32)
	c.conn.Signal(signals)

	out := make(chan string, 32)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if text, ok := insertedText(sig); ok {
					select {
					case out <- text:
					default:
					}
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = c.conn.RemoveMatchSignal(opts...)
			c.conn.RemoveSignal(signals)
		})
	}
	return out, cancel, nil
}

// registerEvent tells the registry we consume text-changed events; some
// toolkits only emit them once a listener is registered.
func (c *Client) registerEvent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registered {
		return nil
	}
	obj := c.conn.Object(registryDest, registryPath)
	if call := obj.CallWithContext(ctx, ifaceRegistry+".RegisterEvent", 0, eventTextInput); call.Err != nil {
		return fmt.Errorf("register text-changed event: %w", call.Err)
	}
	c.registered = true
	return nil
}

// insertedText extracts the inserted string from a TextChanged signal
// with detail "insert".
func insertedText(sig *dbus.Signal) (string, bool) {
	if sig == nil || len(sig.Body) < 4 {
		return "", false
	}
	detail, ok := sig.Body[0].(string)
	if !ok || detail != "insert" {
		return "", false
	}
	switch v := sig.Body[3].(type) {
	case string:
		return v, true
	case dbus.Variant:
		if s, ok := v.Value().(string); ok {
			return s, true
		}
	}
	return "", false
}
