package ingest

import (
	"errors"
	"fmt"
	"strconv"

	shopspring "github.com/shopspring/decimal"

	"github.com/terminal-bench/txengine/internal/ledger"
	"github.com/terminal-bench/txengine/pkg/decimal"
)

var (
	ErrUnknownType  = errors.New("unknown instruction type")
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

// ParseError is a malformed record. It is fatal to a run.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Record is one row as read, before any validation.
type Record struct {
	Line   int
	Type   string
	Client string
	Tx     string
	Amount string
}

// Instruction validates r and converts it to a typed instruction.
func (r Record) Instruction() (ledger.Instruction, error) {
	kind, ok := ledger.ParseKind(r.Type)
	if !ok {
		return nil, r.fail(fmt.Errorf("%w %q", ErrUnknownType, r.Type))
	}

	client, err := parseUint(r.Client, "client", 16)
	if err != nil {
		return nil, r.fail(err)
	}
	tx, err := parseUint(r.Tx, "tx", 32)
	if err != nil {
		return nil, r.fail(err)
	}

	switch kind {
	case ledger.KindDeposit, ledger.KindWithdrawal:
		if r.Amount == "" {
			return nil, r.fail(fmt.Errorf("%w: amount is required for %s", ErrMissingField, kind))
		}
		amount, err := parseAmount(r.Amount)
		if err != nil {
			return nil, r.fail(err)
		}
		if kind == ledger.KindDeposit {
			return ledger.NewDeposit(ledger.ClientID(client), ledger.TxID(tx), amount), nil
		}
		return ledger.NewWithdrawal(ledger.ClientID(client), ledger.TxID(tx), amount), nil
	}

	if r.Amount != "" {
		if _, err := parseAmount(r.Amount); err != nil {
			return nil, r.fail(err)
		}
	}

	switch kind {
	case ledger.KindDispute:
		return ledger.NewDispute(ledger.ClientID(client), ledger.TxID(tx)), nil
	case ledger.KindResolve:
		return ledger.NewResolve(ledger.ClientID(client), ledger.TxID(tx)), nil
	default:
		return ledger.NewChargeback(ledger.ClientID(client), ledger.TxID(tx)), nil
	}
}

func (r Record) fail(err error) error {
	return &ParseError{Line: r.Line, Err: err}
}

func parseUint(s, field string, bits int) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidField, field, s)
	}
	return v, nil
}

func parseAmount(s string) (shopspring.Decimal, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return shopspring.Decimal{}, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return d, nil
}
