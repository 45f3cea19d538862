package suggestion

import "testing"

func TestPendingFansOutToEveryTerminalState(t *testing.T) {
	for _, to := range []Status{StatusApproved, StatusRejected, StatusDuplicate, StatusCancelled} {
		if !CanTransition(StatusPending, to) {
			t.Errorf("pending -> %s should be allowed", to)
		}
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	terminals := []Status{StatusApproved, StatusRejected, StatusDuplicate, StatusCancelled}
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

func TestNoSelfTransition(t *testing.T) {
	if CanTransition(StatusPending, StatusPending) {
		t.Error("pending -> pending should be rejected")
	}
}
