package claim

import "fmt"

// validTransitions mirrors the suggestion lifecycle: pending fans out
// to the terminal states and nothing leaves a terminal state.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return len(validTransitions[s]) == 0
}

// InvalidTransitionError reports an admin verdict attempted on a claim
// that already left the pending state.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}
