// Package form is the headless draft orchestration layer: it owns the
// in-progress expense record, its state machine and the submission flow
// against the backend.
package form

import "fmt"

// State of the in-progress draft
type State string

const (
	StateEmpty      State = "Empty"
	StateDrafted    State = "Drafted"
	StateEditing    State = "Editing"
	StateSubmitting State = "Submitting"
	StatePersisted  State = "Persisted"
)

// Trigger names an action that moves the draft between states
type Trigger string

const (
	TriggerExtract      Trigger = "Extract"
	TriggerManualCreate Trigger = "ManualCreate"
	TriggerEdit         Trigger = "Edit"
	TriggerSubmit       Trigger = "Submit"
	TriggerSucceed      Trigger = "Succeed"
	TriggerFail         Trigger = "Fail"
	TriggerCancel       Trigger = "Cancel"
)

// validTransitions defines the draft lifecycle:
// Empty -> Drafted -> Editing -> Submitting -> {Persisted | Editing}.
// Persisted immediately resets to Empty; Cancel returns to Empty from any
// non-busy state.
var validTransitions = map[State]map[Trigger]State{
	StateEmpty: {
		TriggerExtract:      StateDrafted,
		TriggerManualCreate: StateDrafted,
	},
	StateDrafted: {
		TriggerEdit:   StateEditing,
		TriggerSubmit: StateSubmitting,
		TriggerCancel: StateEmpty,
	},
	StateEditing: {
		TriggerEdit:   StateEditing,
		TriggerSubmit: StateSubmitting,
		TriggerCancel: StateEmpty,
	},
	StateSubmitting: {
		TriggerSucceed: StatePersisted,
		TriggerFail:    StateEditing,
	},
	StatePersisted: {
		TriggerCancel: StateEmpty,
	},
}

// next returns the state reached by firing trigger from s
func (s State) next(trigger Trigger) (State, error) {
	allowed, ok := validTransitions[s]
	if !ok {
		return s, fmt.Errorf("unknown state %q", s)
	}
	to, ok := allowed[trigger]
	if !ok {
		return s, fmt.Errorf("invalid transition: %s from state %s", trigger, s)
	}
	return to, nil
}

// IsBusy returns true while a submission is in flight
func (s State) IsBusy() bool {
	return s == StateSubmitting
}
