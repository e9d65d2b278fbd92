// Package clipboard seeds the system clipboard for paste-based injection
// and restores the previous contents on every exit path.
package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Snapshot is the saved clipboard state taken before seeding. Empty
// distinguishes "clipboard held nothing" from "held empty text".
type Snapshot struct {
	Text  string
	Empty bool
	// Unreadable marks a snapshot that could not be taken; restore then
	// clears the clipboard rather than leaving injected text behind.
	Unreadable bool
}

// Backend is one platform clipboard implementation.
type Backend interface {
	Read(ctx context.Context) (Snapshot, error)
	Write(ctx context.Context, text string) error
	Clear(ctx context.Context) error
}

// Guardian constructs guards over a backend.
type Guardian struct {
	backend      Backend
	clearHistory func(ctx context.Context) error
	logger       *slog.Logger
}

// NewGuardian wires a guardian. clearHistory is optional and best-effort:
// its failure never fails an injection.
func NewGuardian(backend Backend, clearHistory func(ctx context.Context) error, logger *slog.Logger) *Guardian {
	return &Guardian{backend: backend, clearHistory: clearHistory, logger: logger}
}

// Acquire snapshots the current clipboard and seeds it with text. The
// returned guard must be released on every exit path, including panics.
func (g *Guardian) Acquire(ctx context.Context, text string) (*Guard, error) {
	snap, err := g.backend.Read(ctx)
	if err != nil {
		snap = Snapshot{Unreadable: true}
		if g.logger != nil {
			g.logger.Warn("clipboard snapshot failed; restore will clear", "error", err.Error())
		}
	}

	if err := g.backend.Write(ctx, text); err != nil {
		return nil, fmt.Errorf("seed clipboard: %w", err)
	}

	return &Guard{
		backend:      g.backend,
		clearHistory: g.clearHistory,
		logger:       g.logger,
		snap:         snap,
		seeded:       true,
	}, nil
}

// Guard restores the snapshot taken at acquisition. Release is
// idempotent; only the first call performs the restore.
type Guard struct {
	backend      Backend
	clearHistory func(ctx context.Context) error
	logger       *slog.Logger
	snap         Snapshot

	mu       sync.Mutex
	seeded   bool
	released bool
	restored bool
}

// Release puts the original clipboard contents back unconditionally and
// then clears the seeded entry from the clipboard-history manager when
// configured (best-effort).
func (g *Guard) Release(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return nil
	}
	g.released = true

	var err error
	switch {
	case g.snap.Empty || g.snap.Unreadable:
		err = g.backend.Clear(ctx)
	default:
		err = g.backend.Write(ctx, g.snap.Text)
	}
	if err != nil {
		return fmt.Errorf("restore clipboard: %w", err)
	}
	g.restored = true

	if g.clearHistory != nil {
		if herr := g.clearHistory(ctx); herr != nil && g.logger != nil {
			g.logger.Debug("clipboard history clear failed", "error", herr.Error())
		}
	}
	return nil
}

// Seeded reports whether the guard wrote text to the clipboard.
func (g *Guard) Seeded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seeded
}

// Restored reports whether the original contents were put back.
func (g *Guard) Restored() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restored
}
