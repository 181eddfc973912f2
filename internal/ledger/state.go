package ledger

import "fmt"

// State is the dispute lifecycle position of a recorded transaction.
type State uint8

const (
	StateUndisputed State = iota
	StateDisputed
	StateResolved
	StateChargedback
)

func (s State) String() string {
	switch s {
	case StateUndisputed:
		return "undisputed"
	case StateDisputed:
		return "disputed"
	case StateResolved:
		return "resolved"
	case StateChargedback:
		return "chargedback"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// CanTransition reports whether the lifecycle allows moving from one state
// to another. Resolved transactions may be disputed again; chargedback is
// terminal.
func CanTransition(from, to State) bool {
	switch to {
	case StateDisputed:
		return from == StateUndisputed || from == StateResolved
	case StateResolved, StateChargedback:
		return from == StateDisputed
	default:
		return false
	}
}

// Transition returns to when the move is legal, or a *TransitionError
// naming the rejected pair.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}
