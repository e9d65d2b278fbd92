//go:build windows

package clipboard

import (
	"context"
	"fmt"

	"golang.design/x/clipboard"
)

// designBackend drives the Win32 clipboard through golang.design/x/clipboard.
type designBackend struct{}

// NewBackend returns the Windows clipboard backend.
func NewBackend() (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("init clipboard: %w", err)
	}
	return designBackend{}, nil
}

func (designBackend) Read(_ context.Context) (Snapshot, error) {
	data := clipboard.Read(clipboard.FmtText)
	if data == nil {
		return Snapshot{Empty: true}, nil
	}
	return Snapshot{Text: string(data)}, nil
}

func (designBackend) Write(_ context.Context, text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (designBackend) Clear(_ context.Context) error {
	clipboard.Write(clipboard.FmtText, nil)
	return nil
}
