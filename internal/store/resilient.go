package store

import (
	"context"
	"errors"
	"time"

	"signalcore/internal/pkg/circuit"
	"signalcore/internal/types"
)

// ErrCircuitOpen is returned while the outcome database breaker is
// open; callers treat it like an empty batch and keep serving.
var ErrCircuitOpen = errors.New("store: outcome database circuit open")

// ResilientOutcomes wraps a TradeOutcomeRepository with a circuit
// breaker so repeated read failures back off instead of stalling every
// training cycle on a broken database.
type ResilientOutcomes struct {
	inner   TradeOutcomeRepository
	breaker *circuit.Breaker
}

func NewResilientOutcomes(inner TradeOutcomeRepository, threshold int, cooldown time.Duration) *ResilientOutcomes {
	return &ResilientOutcomes{
		inner:   inner,
		breaker: circuit.NewBreaker("outcome-db", threshold, cooldown),
	}
}

func (r *ResilientOutcomes) GetRecentCompleted(ctx context.Context, limit, sinceDays int) ([]types.TradeOutcome, error) {
	if !r.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	outcomes, err := r.inner.GetRecentCompleted(ctx, limit, sinceDays)
	if err != nil {
		r.breaker.RecordFailure()
		return nil, err
	}
	r.breaker.RecordSuccess()
	return outcomes, nil
}
