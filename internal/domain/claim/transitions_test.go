package claim

import "testing"

func TestPendingFansOutToEveryTerminalState(t *testing.T) {
	for _, to := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		if !CanTransition(StatusPending, to) {
			t.Errorf("pending -> %s should be allowed", to)
		}
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	terminals := []Status{StatusApproved, StatusRejected, StatusCancelled}
	all := append([]Status{StatusPending}, terminals...)

	for _, from := range terminals {
		if !IsTerminal(from) {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("%s -> %s should be rejected", from, to)
			}
		}
	}

	if IsTerminal(StatusPending) {
		t.Error("pending should not be terminal")
	}
}

func TestInvalidTransitionErrorNamesBothStates(t *testing.T) {
	err := &InvalidTransitionError{From: StatusApproved, To: StatusRejected}
	want := "invalid transition approved -> rejected"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
