package router

import (
	"context"
	"errors"
	"io"
	"iter"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/terminal-bench/txengine/internal/ledger"
	"github.com/terminal-bench/txengine/pkg/decimal"
	"github.com/terminal-bench/txengine/pkg/messaging"
)

// Source yields instructions in stream order and io.EOF once exhausted.
// Any other error is fatal to the run.
type Source interface {
	Next() (ledger.Instruction, error)
}

// Engine is implemented by Router and Sharded.
type Engine interface {
	Process(ctx context.Context, src Source) error
	All() iter.Seq2[ledger.ClientID, *ledger.Account]
	Sorted() iter.Seq2[ledger.ClientID, *ledger.Account]
	Stats() Stats
	Len() int
}

// Option configures a Router.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	publisher messaging.Publisher
	prefix    string
}

// WithLogger sets the logger used to report instruction outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPublisher emits an event per instruction under the subject prefix.
func WithPublisher(pub messaging.Publisher, prefix string) Option {
	return func(o *options) {
		o.publisher = pub
		o.prefix = prefix
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), prefix: messaging.DefaultSubjectPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Router owns the client to account mapping and applies instructions in
// the order it receives them. A Router is not safe for concurrent use.
type Router struct {
	accounts map[ledger.ClientID]*ledger.Account
	stats    Stats
	opts     options
}

// New creates an empty Router.
func New(opts ...Option) *Router {
	return &Router{
		accounts: make(map[ledger.ClientID]*ledger.Account),
		opts:     buildOptions(opts),
	}
}

// NewEngine returns a sequential Router for workers <= 1 and a Sharded
// router otherwise.
func NewEngine(workers int, opts ...Option) Engine {
	if workers <= 1 {
		return New(opts...)
	}
	return NewSharded(workers, opts...)
}

// Execute applies in to its client's account, creating the account on
// first sight. The returned error is a domain error: it has already been
// logged and counted, and the run should go on.
func (r *Router) Execute(ctx context.Context, in ledger.Instruction) error {
	acc, ok := r.accounts[in.Client()]
	if !ok {
		acc = ledger.NewAccount()
		r.accounts[in.Client()] = acc
	}

	err := acc.Apply(in)
	r.stats.record(in.Kind(), err)

	if err != nil {
		r.opts.logger.Warn("instruction rejected", append(instructionFields(in), zap.Error(err))...)
	} else if ce := r.opts.logger.Check(zap.DebugLevel, "instruction applied"); ce != nil {
		ce.Write(instructionFields(in)...)
	}

	r.publish(ctx, in, err)
	return err
}

// Process drains src. Domain errors are reported and skipped; the first
// error from src itself is returned.
func (r *Router) Process(ctx context.Context, src Source) error {
	for {
		in, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		_ = r.Execute(ctx, in)
	}
}

// Account returns the account of client, if it has been seen.
func (r *Router) Account(client ledger.ClientID) (*ledger.Account, bool) {
	acc, ok := r.accounts[client]
	return acc, ok
}

// All yields every account in no particular order.
func (r *Router) All() iter.Seq2[ledger.ClientID, *ledger.Account] {
	return maps.All(r.accounts)
}

// Sorted yields every account by ascending client id.
func (r *Router) Sorted() iter.Seq2[ledger.ClientID, *ledger.Account] {
	return sortedAccounts(r.accounts)
}

// Stats returns the outcome counters so far.
func (r *Router) Stats() Stats {
	var s Stats
	s.Merge(r.stats)
	return s
}

// Len returns the number of accounts.
func (r *Router) Len() int {
	return len(r.accounts)
}

func (r *Router) publish(ctx context.Context, in ledger.Instruction, applyErr error) {
	if r.opts.publisher == nil {
		return
	}

	event := messaging.InstructionEvent{
		Kind:   in.Kind().String(),
		Client: uint16(in.Client()),
		Tx:     uint32(in.Tx()),
		Status: messaging.StatusApplied,
	}
	if amount, ok := ledger.Amount(in); ok {
		event.Amount = decimal.Format(amount)
	}

	eventType := messaging.EventTypeInstructionApplied
	if applyErr != nil {
		eventType = messaging.EventTypeInstructionRejected
		event.Status = messaging.StatusRejected
		event.Reason = applyErr.Error()
	}

	envelope, err := messaging.NewEvent(eventType, event, "router")
	if err == nil {
		err = r.opts.publisher.Publish(ctx, messaging.Subject(r.opts.prefix, eventType), envelope)
	}
	if err != nil {
		r.opts.logger.Debug("publish failed", zap.String("event", eventType), zap.Error(err))
	}
}

func instructionFields(in ledger.Instruction) []zap.Field {
	fields := []zap.Field{
		zap.Stringer("kind", in.Kind()),
		zap.Uint16("client", uint16(in.Client())),
		zap.Uint32("tx", uint32(in.Tx())),
	}
	if amount, ok := ledger.Amount(in); ok {
		fields = append(fields, zap.String("amount", decimal.Format(amount)))
	}
	return fields
}

func sortedAccounts(accounts map[ledger.ClientID]*ledger.Account) iter.Seq2[ledger.ClientID, *ledger.Account] {
	return func(yield func(ledger.ClientID, *ledger.Account) bool) {
		for _, client := range slices.Sorted(maps.Keys(accounts)) {
			if !yield(client, accounts[client]) {
				return
			}
		}
	}
}
