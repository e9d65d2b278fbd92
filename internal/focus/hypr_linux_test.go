//go:build linux

package focus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubTool puts a fake executable named name on PATH for the test.
func stubTool(t *testing.T, name, body string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestHyprActiveWindowParsesFocusedWindow(t *testing.T) {
	stubTool(t, "hyprctl", `printf '{"address":"0x55d1","class":"kitty","initialClass":"kitty"}'`+"\n")

	window, focused, err := HyprActiveWindow(t.Context())
	require.NoError(t, err)
	require.True(t, focused)
	require.Equal(t, "kitty", window.Class)
}

func TestHyprActiveWindowEmptyReplyMeansNoFocus(t *testing.T) {
	stubTool(t, "hyprctl", `printf '{}'`+"\n")

	_, focused, err := HyprActiveWindow(t.Context())
	require.NoError(t, err)
	require.False(t, focused)
}

func TestHyprActiveWindowSurfacesStderr(t *testing.T) {
	stubTool(t, "hyprctl", "echo 'socket not found' >&2\nexit 1\n")

	_, _, err := HyprActiveWindow(t.Context())
	require.ErrorContains(t, err, "socket not found")
}

func TestHyprAppIDFallsBackToInitialClass(t *testing.T) {
	stubTool(t, "hyprctl", `printf '{"address":"0x55d1","class":"","initialClass":"org.kde.kate"}'`+"\n")

	app, err := hyprAppID(t.Context())
	require.NoError(t, err)
	require.Equal(t, App{ID: "org.kde.kate", Resolved: true}, app)
}

func TestKdotoolAppID(t *testing.T) {
	stubTool(t, "kdotool", `case "$1" in
getactivewindow) printf '{1f6a...}\n' ;;
getwindowclassname) printf 'org.kde.kwrite\n' ;;
esac`+"\n")

	app, err := kdotoolAppID(t.Context())
	require.NoError(t, err)
	require.Equal(t, App{ID: "org.kde.kwrite", Resolved: true}, app)
}
