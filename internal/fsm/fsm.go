// Package fsm implements the pure session-lifecycle state machine shared by the
// overlay session coordinator.
package fsm

import "fmt"

// State is one of the overlay's lifecycle phases. Idle and Hidden are the same
// at-rest phase: Idle names the session's resting data-model variant, Hidden names
// what the overlay shows while resting; this package uses Hidden as the single
// canonical name for that phase.
type State string

// Event is one driver intent or internal lifecycle signal.
type Event string

const (
	StateHidden         State = "hidden"
	StateRecording      State = "recording"
	StateThinking       State = "thinking"
	StateShowingMessage State = "showing_message"
)

const (
	EventStartOrStop    Event = "start_or_stop"
	EventStopCopyOnly   Event = "stop_copy_only"
	EventCancel         Event = "cancel"
	EventPasteSucceeded Event = "paste_succeeded"
	EventCopySucceeded  Event = "copy_succeeded"
	EventFailed         Event = "failed"
	EventTimerExpired   Event = "timer_expired"
)

// Transition applies one event to the current state per the session coordinator's
// transition table. ShowingMessage's message payload (kind/text/expiry) is not
// modeled here — the caller attaches that substate data alongside the returned
// State.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateHidden:
		switch event {
		case EventStartOrStop:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStartOrStop, EventStopCopyOnly:
			return StateThinking, nil
		case EventCancel:
			return StateShowingMessage, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateThinking:
		switch event {
		case EventPasteSucceeded:
			return StateHidden, nil
		case EventCopySucceeded, EventCancel, EventFailed:
			return StateShowingMessage, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateShowingMessage:
		switch event {
		case EventTimerExpired:
			return StateHidden, nil
		case EventStartOrStop:
			return StateRecording, nil
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
