package workflow

import "fmt"

// transitions is the fixed edge table of the settlement lifecycle.
// Progression is forward-only with no skipping; each state has at most
// one successor and SETTLED has none.
var transitions = map[State]State{
	StateDraft:              StateSubmitted,
	StateSubmitted:          StateInternalValidation,
	StateInternalValidation: StateAwaitingPayment,
	StateAwaitingPayment:    StateSettled,
}

// CanTransition returns true if the (from, to) edge exists in the transition table
func CanTransition(from, to State) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Next returns the successor state of from, or false if from is terminal
func Next(from State) (State, bool) {
	next, ok := transitions[from]
	return next, ok
}

// Validate checks that the requested transition is legal. It returns
// ErrInvalidState when either status is unknown and ErrInvalidTransition
// when the edge is not in the table, identifying both states in the message.
func Validate(from, to State) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidState, from)
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidState, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
