package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminal-bench/txengine/pkg/circuit"
)

type fakePublisher struct {
	subjects []string
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	f.subjects = append(f.subjects, subject)
	return f.err
}

func TestNewEvent(t *testing.T) {
	t.Run("should wrap the payload in an envelope", func(t *testing.T) {
		payload := InstructionEvent{Kind: "deposit", Client: 1, Tx: 7, Amount: "1.50", Status: StatusApplied}

		event, err := NewEvent(EventTypeInstructionApplied, payload, "router")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.Equal(t, EventTypeInstructionApplied, event.Type)
		assert.Equal(t, "router", event.Source)
		assert.WithinDuration(t, time.Now(), event.Timestamp, time.Minute)

		decoded, err := ParseEventData[InstructionEvent](event)
		require.NoError(t, err)
		assert.Equal(t, payload, *decoded)
	})

	t.Run("should fail on unencodable payloads", func(t *testing.T) {
		_, err := NewEvent(EventTypeAccountSnapshot, make(chan int), "app")
		assert.Error(t, err)
	})
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "ledger.instruction.applied", Subject(DefaultSubjectPrefix, EventTypeInstructionApplied))
	assert.Equal(t, "account.snapshot", Subject("", EventTypeAccountSnapshot))
}

func TestGuardedPublisher(t *testing.T) {
	t.Run("should forward while the breaker is closed", func(t *testing.T) {
		fake := &fakePublisher{}
		pub := NewGuardedPublisher(fake, circuit.NewBreaker(circuit.Config{Name: "nats"}))

		require.NoError(t, pub.Publish(context.Background(), "ledger.x", struct{}{}))
		assert.Equal(t, []string{"ledger.x"}, fake.subjects)
	})

	t.Run("should stop calling a failing broker", func(t *testing.T) {
		fake := &fakePublisher{err: errors.New("no responders")}
		breaker := circuit.NewBreaker(circuit.Config{Name: "nats", MaxFailures: 2, Timeout: time.Hour})
		pub := NewGuardedPublisher(fake, breaker)

		for i := 0; i < 5; i++ {
			_ = pub.Publish(context.Background(), "ledger.x", struct{}{})
		}

		assert.Len(t, fake.subjects, 2)
		assert.Equal(t, circuit.StateOpen, breaker.State())
		assert.ErrorIs(t, pub.Publish(context.Background(), "ledger.x", struct{}{}), circuit.ErrCircuitOpen)
	})
}

func TestClientWithoutConnection(t *testing.T) {
	c := &Client{}

	assert.Error(t, c.Publish(context.Background(), "ledger.x", struct{}{}))
	assert.Error(t, c.Flush(context.Background()))
	assert.NoError(t, c.Close())
	assert.Equal(t, 0, c.Reconnects())
}
