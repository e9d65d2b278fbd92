package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateInjecting State = "injecting"
	StatePaused    State = "paused"
	StateError     State = "error"
)

const (
	EventBegin  Event = "begin"
	EventFinish Event = "finish"
	EventPause  Event = "pause"
	EventResume Event = "resume"
	EventFail   Event = "fail"
	EventReset  Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventBegin:
			return StateInjecting, nil
		case EventPause:
			return StatePaused, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateInjecting:
		switch event {
		case EventFinish:
			return StateIdle, nil
		case EventPause:
			return StatePaused, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePaused:
		switch event {
		case EventResume:
			return StateIdle, nil
		case EventPause:
			return StatePaused, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
