package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrefersExplicit(t *testing.T) {
	path, err := ResolvePath("/tmp/custom.toml")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.toml", path)
}

func TestResolvePathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, "/xdg/config/scrivo/config.toml", path)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[log]
level = "debug"

[injection]
mode = "paste"
total_budget_ms = 1200
denylist = ["keepassxc", "bitwarden"]

[methods]
allow_ydotool = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "debug", loaded.Config.Log.Level)
	require.Equal(t, "paste", loaded.Config.Injection.Mode)
	require.Equal(t, 1200, loaded.Config.Injection.TotalBudgetMS)
	require.Equal(t, []string{"keepassxc", "bitwarden"}, loaded.Config.Injection.Denylist)
	require.True(t, loaded.Config.Methods.AllowYdotool)

	// Unset sections keep their defaults.
	require.Equal(t, Default().Clipboard, loaded.Config.Clipboard)
	require.Equal(t, 50, loaded.Config.Injection.AttemptTimeoutMS)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[injection]
mode = "fax"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "injection.mode")
}
