// Package focus reports which application holds input focus, whether the
// focused widget is editable, and streams text-changed events used to
// confirm injection.
package focus

import (
	"context"
	"errors"
)

// Status classifies the currently focused widget.
type Status int

const (
	StatusUnknown Status = iota
	StatusEditable
	StatusNonEditable
)

// String returns the log name of the status.
func (s Status) String() string {
	switch s {
	case StatusEditable:
		return "editable"
	case StatusNonEditable:
		return "non_editable"
	default:
		return "unknown"
	}
}

// UnresolvedAppID is the reserved history bucket for calls where the
// foreground application could not be resolved. Keeping it distinct stops
// detection failures from polluting a real application's records.
const UnresolvedAppID = "?"

// App identifies the foreground application. Resolved distinguishes a
// real detection result from a detection failure or an empty desktop;
// the two must never be conflated into a placeholder id.
type App struct {
	ID       string
	Resolved bool
}

// BucketID returns the cache/telemetry key for the application.
func (a App) BucketID() string {
	if !a.Resolved || a.ID == "" {
		return UnresolvedAppID
	}
	return a.ID
}

// ChangeEvent is one observed text insertion in the focused widget.
type ChangeEvent struct {
	Text string
}

// ErrNoEventStream is returned by providers that cannot observe text
// changes (no accessibility bus, unsupported platform).
var ErrNoEventStream = errors.New("focus: text-changed events unavailable")

// Provider is the focus oracle consumed by the strategy manager. Every
// method must honor ctx cancellation; the manager additionally bounds
// each call with its own timeout.
type Provider interface {
	// Status reports whether the focused widget accepts text.
	Status(ctx context.Context) (Status, error)
	// ActiveApp resolves the foreground application identifier.
	ActiveApp(ctx context.Context) (App, error)
	// TextChanges subscribes to insertion events for confirmation. The
	// returned cancel func releases the subscription and must always be
	// called. Implementations without an event source return
	// ErrNoEventStream.
	TextChanges(ctx context.Context) (<-chan ChangeEvent, func(), error)
}
