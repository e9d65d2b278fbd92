//go:build linux

package focus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinuxProviderWithoutBusDegradesToUnknown(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	t.Setenv("XDG_CURRENT_DESKTOP", "")

	p := NewLinuxProvider(nil, nil)

	status, err := p.Status(t.Context())
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, status)

	_, _, err = p.TextChanges(t.Context())
	require.ErrorIs(t, err, ErrNoEventStream)

	_, err = p.ActiveApp(t.Context())
	require.Error(t, err)
}

func TestDetectAppResolverPrefersHyprctl(t *testing.T) {
	stubTool(t, "hyprctl", "exit 0\n")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")

	require.NotNil(t, detectAppResolver())
}

func TestDetectAppResolverNilWithoutTooling(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	t.Setenv("XDG_CURRENT_DESKTOP", "gnome")

	require.Nil(t, detectAppResolver())
}
