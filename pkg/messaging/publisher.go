package messaging

import (
	"context"

	"github.com/terminal-bench/txengine/pkg/circuit"
)

// Publisher sends a payload to a subject. *Client implements it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// GuardedPublisher routes every publish through a circuit breaker so that
// an unreachable broker costs one fast failure per instruction instead of a
// network timeout.
type GuardedPublisher struct {
	pub     Publisher
	breaker *circuit.Breaker
}

// NewGuardedPublisher wraps pub with breaker.
func NewGuardedPublisher(pub Publisher, breaker *circuit.Breaker) *GuardedPublisher {
	return &GuardedPublisher{pub: pub, breaker: breaker}
}

// Publish implements Publisher.
func (g *GuardedPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return g.breaker.Execute(ctx, func() error {
		return g.pub.Publish(ctx, subject, data)
	})
}
