package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalcore/internal/types"
)

type flakyRepo struct {
	err   error
	calls int
}

func (f *flakyRepo) GetRecentCompleted(_ context.Context, _, _ int) ([]types.TradeOutcome, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []types.TradeOutcome{{Symbol: "BTCUSDT", ActualOutcome: types.OutcomeTPHit}}, nil
}

func TestResilientOutcomesPassesThroughHealthyReads(t *testing.T) {
	inner := &flakyRepo{}
	r := NewResilientOutcomes(inner, 3, time.Minute)

	out, err := r.GetRecentCompleted(context.Background(), 10, 30)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestResilientOutcomesOpensAfterThreshold(t *testing.T) {
	inner := &flakyRepo{err: errors.New("disk io")}
	r := NewResilientOutcomes(inner, 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := r.GetRecentCompleted(context.Background(), 10, 30)
		assert.EqualError(t, err, "disk io")
	}

	// Breaker is open now: the inner repository must not be touched.
	_, err := r.GetRecentCompleted(context.Background(), 10, 30)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, inner.calls)
}

func TestResilientOutcomesRecoversAfterCooldown(t *testing.T) {
	inner := &flakyRepo{err: errors.New("disk io")}
	r := NewResilientOutcomes(inner, 2, 50*time.Millisecond)

	for i := 0; i < 2; i++ {
		_, _ = r.GetRecentCompleted(context.Background(), 10, 30)
	}
	_, err := r.GetRecentCompleted(context.Background(), 10, 30)
	require.ErrorIs(t, err, ErrCircuitOpen)

	time.Sleep(60 * time.Millisecond)
	inner.err = nil

	out, err := r.GetRecentCompleted(context.Background(), 10, 30)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	// Closed again: subsequent calls flow straight through.
	_, err = r.GetRecentCompleted(context.Background(), 10, 30)
	assert.NoError(t, err)
}
