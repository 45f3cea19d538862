package suggestion

// validTransitions is the authoritative state machine definition:
// pending fans out to the four terminal states and nothing leaves a
// terminal state.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected, StatusDuplicate, StatusCancelled},
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
