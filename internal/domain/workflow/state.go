package workflow

// State represents an invoice status in the settlement lifecycle
type State string

const (
	StateDraft              State = "DRAFT"
	StateSubmitted          State = "SUBMITTED"
	StateInternalValidation State = "INTERNAL_VALIDATION"
	StateAwaitingPayment    State = "AWAITING_PAYMENT"
	StateSettled            State = "SETTLED"
)

var validStates = map[State]bool{
	StateDraft:              true,
	StateSubmitted:          true,
	StateInternalValidation: true,
	StateAwaitingPayment:    true,
	StateSettled:            true,
}

var terminalStates = map[State]bool{
	StateSettled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid invoice status
func (s State) IsValid() bool {
	return validStates[s]
}

// AllStates returns every valid status in lifecycle order
func AllStates() []State {
	return []State{
		StateDraft,
		StateSubmitted,
		StateInternalValidation,
		StateAwaitingPayment,
		StateSettled,
	}
}
