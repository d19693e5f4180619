package session

import "fmt"

// State is a session's position in its lifecycle.
//
// Empty and Ready are stable; Analyzing and Updating are transient states
// held only while an external inference call is in flight. A failed call
// returns the session to the stable state it came from.
type State string

const (
	// StateEmpty: no bill yet; only a receipt upload is accepted.
	StateEmpty State = "empty"

	// StateAnalyzing: receipt extraction in flight.
	StateAnalyzing State = "analyzing"

	// StateReady: bill present, awaiting user input.
	StateReady State = "ready"

	// StateUpdating: command interpretation in flight.
	StateUpdating State = "updating"
)

// IsTransient reports whether an external call is in flight in this state.
// New submissions against a transient session are rejected, never
// interleaved: the validator's correctness depends on comparing against a
// fixed previous-bill snapshot.
func (s State) IsTransient() bool {
	return s == StateAnalyzing || s == StateUpdating
}

// transition validates a state change. A disallowed transition is a
// programming error in the session, not a user-facing condition.
func transition(from, to State) error {
	if !allowedTransition(from, to) {
		return fmt.Errorf("disallowed session transition: %s -> %s", from, to)
	}
	return nil
}

func allowedTransition(from, to State) bool {
	switch from {
	case StateEmpty:
		return to == StateAnalyzing
	case StateAnalyzing:
		return to == StateReady || to == StateEmpty
	case StateReady:
		return to == StateUpdating
	case StateUpdating:
		return to == StateReady
	default:
		return false
	}
}
