//go:build windows

package focus

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow    = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcess = user32.NewProc("GetWindowThreadProcessId")
)

// windowsProvider resolves the foreground process image name. Widget
// editability is not observable without a UI Automation client, so the
// status stays unknown and injection relies on the unknown-focus policy.
type windowsProvider struct{}

// NewWindowsProvider builds the Windows focus provider.
func NewWindowsProvider() Provider {
	return windowsProvider{}
}

func (windowsProvider) Status(_ context.Context) (Status, error) {
	return StatusUnknown, nil
}

func (windowsProvider) ActiveApp(_ context.Context) (App, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return App{}, nil
	}

	var pid uint32
	_, _, _ = procGetWindowThreadProcess.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return App{}, fmt.Errorf("focus: no process for foreground window")
	}

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return App{}, fmt.Errorf("focus: open process %d: %w", pid, err)
	}
	defer func() { _ = windows.CloseHandle(handle) }()

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return App{}, fmt.Errorf("focus: query image name: %w", err)
	}

	image := syscall.UTF16ToString(buf[:size])
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(image)), ".exe")
	if name == "" {
		return App{}, nil
	}
	return App{ID: name, Resolved: true}, nil
}

func (windowsProvider) TextChanges(_ context.Context) (<-chan ChangeEvent, func(), error) {
	return nil, nil, ErrNoEventStream
}
