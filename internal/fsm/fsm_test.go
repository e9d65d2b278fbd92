package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventBegin)
	require.NoError(t, err)
	require.Equal(t, StateInjecting, next)

	next, err = Transition(next, EventFinish)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionPauseResumeCycle(t *testing.T) {
	next, err := Transition(StateIdle, EventPause)
	require.NoError(t, err)
	require.Equal(t, StatePaused, next)

	// Pausing while paused is a no-op, not an error.
	next, err = Transition(next, EventPause)
	require.NoError(t, err)
	require.Equal(t, StatePaused, next)

	next, err = Transition(next, EventResume)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateInjecting, StatePaused, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle finish invalid", state: StateIdle, event: EventFinish, want: StateIdle, wantErr: true},
		{name: "idle resume invalid", state: StateIdle, event: EventResume, want: StateIdle, wantErr: true},
		{name: "injecting begin invalid", state: StateInjecting, event: EventBegin, want: StateInjecting, wantErr: true},
		{name: "injecting resume invalid", state: StateInjecting, event: EventResume, want: StateInjecting, wantErr: true},
		{name: "injecting pause valid", state: StateInjecting, event: EventPause, want: StatePaused, wantErr: false},
		{name: "paused begin invalid", state: StatePaused, event: EventBegin, want: StatePaused, wantErr: true},
		{name: "paused finish invalid", state: StatePaused, event: EventFinish, want: StatePaused, wantErr: true},
		{name: "error begin invalid", state: StateError, event: EventBegin, want: StateError, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventBegin)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
