package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClientID identifies an account holder.
type ClientID uint16

// TxID identifies a deposit or withdrawal across the whole stream.
type TxID uint32

// Kind names an instruction variant. String values match the type tags of
// the input format.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	case KindDispute:
		return "dispute"
	case KindResolve:
		return "resolve"
	case KindChargeback:
		return "chargeback"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a type tag to its Kind. Tags are lowercase and exact.
func ParseKind(tag string) (Kind, bool) {
	switch tag {
	case "deposit":
		return KindDeposit, true
	case "withdrawal":
		return KindWithdrawal, true
	case "dispute":
		return KindDispute, true
	case "resolve":
		return KindResolve, true
	case "chargeback":
		return KindChargeback, true
	}
	return 0, false
}

// Transaction is the payload of instructions that move money.
type Transaction struct {
	ClientID ClientID
	TxID     TxID
	Amount   decimal.Decimal
}

func (t Transaction) Client() ClientID { return t.ClientID }
func (t Transaction) Tx() TxID         { return t.TxID }
func (Transaction) instruction()       {}

// Operation references a previously recorded transaction.
type Operation struct {
	ClientID ClientID
	TxID     TxID
}

func (o Operation) Client() ClientID { return o.ClientID }
func (o Operation) Tx() TxID         { return o.TxID }
func (Operation) instruction()       {}

// Instruction is one unit of input. The set of implementations is closed:
// Deposit, Withdrawal, Dispute, Resolve and Chargeback.
type Instruction interface {
	Kind() Kind
	Client() ClientID
	Tx() TxID
	instruction()
}

type (
	Deposit    struct{ Transaction }
	Withdrawal struct{ Transaction }
	Dispute    struct{ Operation }
	Resolve    struct{ Operation }
	Chargeback struct{ Operation }
)

func (Deposit) Kind() Kind    { return KindDeposit }
func (Withdrawal) Kind() Kind { return KindWithdrawal }
func (Dispute) Kind() Kind    { return KindDispute }
func (Resolve) Kind() Kind    { return KindResolve }
func (Chargeback) Kind() Kind { return KindChargeback }

// NewDeposit, NewWithdrawal, NewDispute, NewResolve and NewChargeback build
// instructions without spelling out the embedded payload.
func NewDeposit(client ClientID, tx TxID, amount decimal.Decimal) Deposit {
	return Deposit{Transaction{ClientID: client, TxID: tx, Amount: amount}}
}

func NewWithdrawal(client ClientID, tx TxID, amount decimal.Decimal) Withdrawal {
	return Withdrawal{Transaction{ClientID: client, TxID: tx, Amount: amount}}
}

func NewDispute(client ClientID, tx TxID) Dispute {
	return Dispute{Operation{ClientID: client, TxID: tx}}
}

func NewResolve(client ClientID, tx TxID) Resolve {
	return Resolve{Operation{ClientID: client, TxID: tx}}
}

func NewChargeback(client ClientID, tx TxID) Chargeback {
	return Chargeback{Operation{ClientID: client, TxID: tx}}
}

// Amount returns the amount carried by in, if its variant has one.
func Amount(in Instruction) (decimal.Decimal, bool) {
	switch v := in.(type) {
	case Deposit:
		return v.Amount, true
	case Withdrawal:
		return v.Amount, true
	default:
		return decimal.Decimal{}, false
	}
}

// Record is a transaction kept in an account's history. Withdrawals are
// stored with a negated amount so disputes move funds symmetrically.
type Record struct {
	Client ClientID
	Tx     TxID
	Amount decimal.Decimal
	State  State
}

func (r *Record) advance(to State) error {
	next, err := Transition(r.State, to)
	if err != nil {
		return err
	}
	r.State = next
	return nil
}
