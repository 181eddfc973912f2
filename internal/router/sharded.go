package router

import (
	"context"
	"errors"
	"io"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/txengine/internal/ledger"
)

const shardQueueSize = 256

// Sharded spreads clients over independent Routers, one goroutine each.
// All instructions of a client land on the same shard in stream order, so
// the result equals that of a single Router.
type Sharded struct {
	shards []*Router
}

// NewSharded creates a Sharded router with the given number of shards.
func NewSharded(workers int, opts ...Option) *Sharded {
	if workers < 1 {
		workers = 1
	}

	s := &Sharded{shards: make([]*Router, workers)}
	for i := range s.shards {
		s.shards[i] = New(opts...)
	}
	return s
}

func (s *Sharded) shardOf(client ledger.ClientID) int {
	return int(client) % len(s.shards)
}

// Process reads src in a single goroutine and feeds each shard through its
// own queue. The first source error cancels the group and is
// returned once every shard has stopped.
func (s *Sharded) Process(ctx context.Context, src Source) error {
	g, ctx := errgroup.WithContext(ctx)

	queues := make([]chan ledger.Instruction, len(s.shards))
	for i := range queues {
		queues[i] = make(chan ledger.Instruction, shardQueueSize)
	}

	for i, shard := range s.shards {
		queue := queues[i]
		g.Go(func() error {
			for in := range queue {
				_ = shard.Execute(ctx, in)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()

		for {
			in, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			select {
			case queues[s.shardOf(in.Client())] <- in:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

// Account returns the account of client, if it has been seen.
func (s *Sharded) Account(client ledger.ClientID) (*ledger.Account, bool) {
	return s.shards[s.shardOf(client)].Account(client)
}

// All yields every account in no particular order. Call it only after
// Process has returned.
func (s *Sharded) All() iter.Seq2[ledger.ClientID, *ledger.Account] {
	return func(yield func(ledger.ClientID, *ledger.Account) bool) {
		for _, shard := range s.shards {
			for client, acc := range shard.All() {
				if !yield(client, acc) {
					return
				}
			}
		}
	}
}

// Sorted yields every account by ascending client id.
func (s *Sharded) Sorted() iter.Seq2[ledger.ClientID, *ledger.Account] {
	merged := make(map[ledger.ClientID]*ledger.Account, s.Len())
	for client, acc := range s.All() {
		merged[client] = acc
	}
	return sortedAccounts(merged)
}

// Stats sums the counters of every shard.
func (s *Sharded) Stats() Stats {
	var total Stats
	for _, shard := range s.shards {
		total.Merge(shard.stats)
	}
	return total
}

// Len returns the number of accounts over all shards.
func (s *Sharded) Len() int {
	n := 0
	for _, shard := range s.shards {
		n += shard.Len()
	}
	return n
}
