package inject

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttemptErrorClassification(t *testing.T) {
	cause := errors.New("bus timeout")

	tr := Transient(cause)
	require.Equal(t, ClassTransient, tr.Class)
	require.Equal(t, "bus timeout", tr.Error())
	require.ErrorIs(t, tr, cause)

	ft := Fatal(cause, "enable the accessibility bus")
	require.Equal(t, ClassFatal, ft.Class)
	require.Equal(t, "enable the accessibility bus", ft.Remediation)
}

func TestTransientfFormats(t *testing.T) {
	err := Transientf("portal response code %d", 2)
	require.Equal(t, ClassTransient, err.Class)
	require.Equal(t, "portal response code 2", err.Error())
}

func TestErrorRendersAttemptTrail(t *testing.T) {
	ie := &Error{
		Kind: KindAllMethodsFailed,
		App:  "kate",
		Attempts: []AttemptFailure{
			{Method: AtspiInsert, Class: ClassTransient, Reason: "no confirmation"},
			{Method: VirtualKeyboard, Class: ClassFatal, Reason: "wtype not found"},
		},
		Remediation: "install wtype",
	}

	msg := ie.Error()
	require.Contains(t, msg, "all_methods_failed")
	require.Contains(t, msg, `app "kate"`)
	require.Contains(t, msg, "atspi_insert: no confirmation (transient)")
	require.Contains(t, msg, "virtual_keyboard: wtype not found (fatal)")
	require.Contains(t, msg, "install wtype")
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", &Error{Kind: KindPaused})
	require.True(t, IsKind(wrapped, KindPaused))
	require.False(t, IsKind(wrapped, KindTimeout))
	require.False(t, IsKind(errors.New("plain"), KindPaused))
}

func TestRemediationForPrefersFirstFatalHint(t *testing.T) {
	hints := map[Method]string{
		PortalEis:       "authorize the remote-desktop portal prompt",
		VirtualKeyboard: "install wtype",
	}
	attempts := []AttemptFailure{
		{Method: AtspiInsert, Class: ClassTransient},
		{Method: PortalEis, Class: ClassFatal},
		{Method: VirtualKeyboard, Class: ClassFatal},
	}
	require.Equal(t, "authorize the remote-desktop portal prompt", remediationFor(attempts, hints))
}

func TestRemediationForPrefersAttemptHintOverRegistry(t *testing.T) {
	hints := map[Method]string{
		VirtualKeyboard: "install wtype",
	}
	attempts := []AttemptFailure{
		{Method: VirtualKeyboard, Class: ClassFatal, Remediation: "enable the virtual-keyboard protocol"},
	}
	require.Equal(t, "enable the virtual-keyboard protocol", remediationFor(attempts, hints))
}

func TestRemediationForFallsBackToDoctorHint(t *testing.T) {
	attempts := []AttemptFailure{{Method: AtspiInsert, Class: ClassTransient}}
	require.Contains(t, remediationFor(attempts, nil), "scrivo doctor")
}
