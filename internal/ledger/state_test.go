package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	legal := []struct {
		from, to State
	}{
		{StateUndisputed, StateDisputed},
		{StateResolved, StateDisputed},
		{StateDisputed, StateResolved},
		{StateDisputed, StateChargedback},
	}

	t.Run("should allow every move in the lifecycle table", func(t *testing.T) {
		for _, tc := range legal {
			next, err := Transition(tc.from, tc.to)
			require.NoError(t, err, "%s => %s", tc.from, tc.to)
			assert.Equal(t, tc.to, next)
		}
	})

	t.Run("should reject every other move", func(t *testing.T) {
		all := []State{StateUndisputed, StateDisputed, StateResolved, StateChargedback}
		for _, from := range all {
			for _, to := range all {
				isLegal := false
				for _, tc := range legal {
					if tc.from == from && tc.to == to {
						isLegal = true
					}
				}
				if isLegal {
					continue
				}

				next, err := Transition(from, to)
				assert.Equal(t, from, next, "%s => %s must keep the old state", from, to)
				assert.ErrorIs(t, err, ErrIllegalTransition, "%s => %s", from, to)
			}
		}
	})

	t.Run("should name the rejected pair", func(t *testing.T) {
		_, err := Transition(StateChargedback, StateDisputed)

		var te *TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, StateChargedback, te.From)
		assert.Equal(t, StateDisputed, te.To)
		assert.Equal(t, "illegal state transition: chargedback => disputed", err.Error())
	})
}

func TestRecordAdvance(t *testing.T) {
	t.Run("should walk dispute, resolve and dispute again", func(t *testing.T) {
		rec := &Record{Tx: 555}

		require.NoError(t, rec.advance(StateDisputed))
		assert.Error(t, rec.advance(StateDisputed))
		require.NoError(t, rec.advance(StateResolved))
		assert.Error(t, rec.advance(StateResolved))
		require.NoError(t, rec.advance(StateDisputed))
		assert.Equal(t, StateDisputed, rec.State)
	})

	t.Run("should stay chargedback", func(t *testing.T) {
		rec := &Record{Tx: 555}

		assert.Error(t, rec.advance(StateChargedback))
		require.NoError(t, rec.advance(StateDisputed))
		require.NoError(t, rec.advance(StateChargedback))
		assert.Error(t, rec.advance(StateChargedback))
		assert.Error(t, rec.advance(StateDisputed))
		assert.Equal(t, StateChargedback, rec.State)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "undisputed", StateUndisputed.String())
	assert.Equal(t, "chargedback", StateChargedback.String())
	assert.Equal(t, "state(9)", State(9).String())
}
