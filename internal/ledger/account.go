package ledger

import (
	"github.com/shopspring/decimal"
)

// Account holds one client's balances and the transactions that can still
// be referenced by disputes. total == available + held holds after every
// instruction, applied or rejected.
type Account struct {
	available decimal.Decimal
	held      decimal.Decimal
	total     decimal.Decimal
	locked    bool

	history map[TxID]*Record
}

// NewAccount returns an empty, unlocked account.
func NewAccount() *Account {
	return &Account{
		available: decimal.Zero,
		held:      decimal.Zero,
		total:     decimal.Zero,
		history:   make(map[TxID]*Record),
	}
}

// Apply dispatches in to the matching operation.
func (a *Account) Apply(in Instruction) error {
	switch v := in.(type) {
	case Deposit:
		return a.Deposit(v.Transaction)
	case Withdrawal:
		return a.Withdraw(v.Transaction)
	case Dispute:
		return a.Dispute(v.Operation)
	case Resolve:
		return a.Resolve(v.Operation)
	case Chargeback:
		return a.Chargeback(v.Operation)
	default:
		return instructionError(in, ErrUnsupportedInstruction)
	}
}

// Deposit credits available and total. A record with the same tx id is
// replaced.
func (a *Account) Deposit(t Transaction) error {
	a.available = a.available.Add(t.Amount)
	a.total = a.total.Add(t.Amount)
	a.record(&Record{Client: t.ClientID, Tx: t.TxID, Amount: t.Amount})
	return nil
}

// Withdraw debits available and total unless that would leave available
// negative, in which case the account is not touched.
func (a *Account) Withdraw(t Transaction) error {
	available := a.available.Sub(t.Amount)
	if available.IsNegative() {
		return instructionError(Withdrawal{t}, ErrInsufficientFunds)
	}

	a.available = available
	a.total = a.total.Sub(t.Amount)
	a.record(&Record{Client: t.ClientID, Tx: t.TxID, Amount: t.Amount.Neg()})
	return nil
}

func (a *Account) record(rec *Record) {
	if a.history == nil {
		a.history = make(map[TxID]*Record)
	}
	a.history[rec.Tx] = rec
}

// Dispute holds the funds of a recorded transaction.
func (a *Account) Dispute(op Operation) error {
	rec, ok := a.history[op.TxID]
	if !ok {
		return instructionError(Dispute{op}, ErrUnknownTransaction)
	}
	if err := rec.advance(StateDisputed); err != nil {
		return instructionError(Dispute{op}, err)
	}

	a.available = a.available.Sub(rec.Amount)
	a.held = a.held.Add(rec.Amount)
	return nil
}

// Resolve releases the funds held by a dispute.
func (a *Account) Resolve(op Operation) error {
	rec, ok := a.history[op.TxID]
	if !ok {
		return instructionError(Resolve{op}, ErrUnknownTransaction)
	}
	if err := rec.advance(StateResolved); err != nil {
		return instructionError(Resolve{op}, err)
	}

	a.available = a.available.Add(rec.Amount)
	a.held = a.held.Sub(rec.Amount)
	return nil
}

// Chargeback reverses a disputed transaction and locks the account.
func (a *Account) Chargeback(op Operation) error {
	rec, ok := a.history[op.TxID]
	if !ok {
		return instructionError(Chargeback{op}, ErrUnknownTransaction)
	}
	if err := rec.advance(StateChargedback); err != nil {
		return instructionError(Chargeback{op}, err)
	}

	a.locked = true
	a.total = a.total.Sub(rec.Amount)
	a.held = a.held.Sub(rec.Amount)
	return nil
}

func (a *Account) Available() decimal.Decimal { return a.available }
func (a *Account) Held() decimal.Decimal      { return a.held }
func (a *Account) Total() decimal.Decimal     { return a.total }

// Locked reports whether a chargeback ever hit the account. It is a
// reporting flag only; locked accounts keep accepting instructions.
func (a *Account) Locked() bool { return a.locked }

// Record returns a copy of the history entry for tx.
func (a *Account) Record(tx TxID) (Record, bool) {
	rec, ok := a.history[tx]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Len returns the number of recorded transactions.
func (a *Account) Len() int {
	return len(a.history)
}
