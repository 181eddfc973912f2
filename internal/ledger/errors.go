package ledger

import (
	"errors"
	"fmt"
)

// Domain errors. None of them is fatal to a replay: the instruction that
// produced one had no effect on the account.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUnknownTransaction     = errors.New("unknown transaction")
	ErrIllegalTransition      = errors.New("illegal state transition")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
)

// TransitionError is returned when a dispute, resolve or chargeback asks
// for a move the lifecycle does not allow.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s => %s", ErrIllegalTransition, e.From, e.To)
}

// Is lets errors.Is(err, ErrIllegalTransition) match.
func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// InstructionError ties a domain error to the instruction that caused it.
type InstructionError struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Err    error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("%s client %d tx %d: %v", e.Kind, e.Client, e.Tx, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

func instructionError(in Instruction, err error) error {
	return &InstructionError{Kind: in.Kind(), Client: in.Client(), Tx: in.Tx(), Err: err}
}
