package circuit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBreaker(maxFailures int) (*Breaker, *clock, *[]string) {
	transitions := &[]string{}
	b := NewBreaker(Config{
		Name:        "test",
		MaxFailures: maxFailures,
		Timeout:     time.Second,
		HalfOpenMax: 1,
		OnStateChange: func(name string, from, to State) {
			*transitions = append(*transitions, name+":"+from.String()+"->"+to.String())
		},
	})
	c := &clock{t: time.Unix(1700000000, 0)}
	b.now = c.now
	return b, c, transitions
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerClosed(t *testing.T) {
	t.Run("should pass calls through", func(t *testing.T) {
		b, _, _ := newTestBreaker(3)

		assert.NoError(t, b.Execute(context.Background(), succeed))
		assert.ErrorIs(t, b.Execute(context.Background(), fail), errBoom)
		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, 1, b.Failures())
	})

	t.Run("should reset failures after a success", func(t *testing.T) {
		b, _, _ := newTestBreaker(3)

		_ = b.Execute(context.Background(), fail)
		_ = b.Execute(context.Background(), fail)
		_ = b.Execute(context.Background(), succeed)

		assert.Equal(t, 0, b.Failures())
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("should refuse to run with a cancelled context", func(t *testing.T) {
		b, _, _ := newTestBreaker(3)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := b.Execute(ctx, func() error { called = true; return nil })

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestBreakerOpen(t *testing.T) {
	t.Run("should open after max failures and fail fast", func(t *testing.T) {
		b, _, transitions := newTestBreaker(2)

		_ = b.Execute(context.Background(), fail)
		_ = b.Execute(context.Background(), fail)

		assert.Equal(t, StateOpen, b.State())
		called := false
		err := b.Execute(context.Background(), func() error { called = true; return nil })
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.False(t, called)
		assert.Equal(t, []string{"test:closed->open"}, *transitions)
	})

	t.Run("should close again after a successful probe", func(t *testing.T) {
		b, c, transitions := newTestBreaker(1)
		_ = b.Execute(context.Background(), fail)

		c.t = c.t.Add(2 * time.Second)
		assert.NoError(t, b.Execute(context.Background(), succeed))

		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, []string{
			"test:closed->open",
			"test:open->half-open",
			"test:half-open->closed",
		}, *transitions)
	})

	t.Run("should reopen when the probe fails", func(t *testing.T) {
		b, c, _ := newTestBreaker(1)
		_ = b.Execute(context.Background(), fail)

		c.t = c.t.Add(2 * time.Second)
		assert.ErrorIs(t, b.Execute(context.Background(), fail), errBoom)

		assert.Equal(t, StateOpen, b.State())
		assert.ErrorIs(t, b.Execute(context.Background(), succeed), ErrCircuitOpen)
	})

	t.Run("should limit concurrent probes in half-open state", func(t *testing.T) {
		b, c, _ := newTestBreaker(1)
		_ = b.Execute(context.Background(), fail)
		c.t = c.t.Add(2 * time.Second)

		var inner error
		err := b.Execute(context.Background(), func() error {
			inner = b.Execute(context.Background(), succeed)
			return nil
		})

		assert.NoError(t, err)
		assert.ErrorIs(t, inner, ErrTooManyRequests)
	})

	t.Run("should close on reset", func(t *testing.T) {
		b, _, _ := newTestBreaker(1)
		_ = b.Execute(context.Background(), fail)

		b.Reset()

		assert.Equal(t, StateClosed, b.State())
		assert.NoError(t, b.Execute(context.Background(), succeed))
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestBreakerConcurrency(t *testing.T) {
	t.Run("should handle concurrent state transitions safely", func(t *testing.T) {
		b := NewBreaker(Config{Name: "race", MaxFailures: 3, Timeout: time.Hour})

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = b.Execute(context.Background(), fail)
			}()
			go func() {
				defer wg.Done()
				_ = b.State()
				_ = b.Failures()
			}()
		}
		wg.Wait()

		assert.Equal(t, StateOpen, b.State())
	})
}
