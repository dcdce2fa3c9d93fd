package optimizer

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/logger"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"
)

// Vote weights per trade class.
const (
	successVoteWeight = 5.0
	failureVoteWeight = 3.0
	legacyVoteWeight  = 1.0
)

// VoteTally accumulates weighted success/failure votes for one
// indicator.
type VoteTally struct {
	Positive float64
	Negative float64
}

// SuccessRatio is positive votes over all votes, 0.5 when empty.
func (t VoteTally) SuccessRatio() float64 {
	total := t.Positive + t.Negative
	if total <= 0 {
		return 0.5
	}
	return t.Positive / total
}

// SnapshotFn returns the last feature vector seen for a symbol, used to
// attribute a trade's votes to the indicators that agreed with it.
type SnapshotFn func(symbol string) (types.FeatureVector, bool)

// Optimizer adjusts persisted indicator weights from graded trade
// outcomes and runs exploratory perturbation experiments.
type Optimizer struct {
	cfg config.OptimizerConfig

	rngMu sync.Mutex
	rng   *rand.Rand

	snapshot SnapshotFn
}

func New(cfg config.OptimizerConfig, rng *rand.Rand, snapshot SnapshotFn) *Optimizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Optimizer{cfg: cfg, rng: rng, snapshot: snapshot}
}

// TallyVotes classifies each completed trade and accumulates weighted
// votes per indicator. When a feature snapshot exists for the trade's
// symbol, only indicators whose reading leaned with the trade direction
// absorb the vote; otherwise every indicator votes equally.
func (o *Optimizer) TallyVotes(outcomes []types.TradeOutcome, indicators []string) map[string]VoteTally {
	tallies := make(map[string]VoteTally, len(indicators))
	for _, out := range outcomes {
		voteWeight, positive := classify(out)
		if voteWeight == 0 {
			continue
		}
		attributed := o.attribute(out, indicators)
		for _, ind := range attributed {
			t := tallies[ind]
			if positive {
				t.Positive += voteWeight
			} else {
				t.Negative += voteWeight
			}
			tallies[ind] = t
		}
	}
	return tallies
}

func classify(o types.TradeOutcome) (weight float64, positive bool) {
	switch o.ActualOutcome {
	case types.OutcomeTPHit, types.OutcomePulloutProfit:
		return successVoteWeight, true
	case types.OutcomeSLHit, types.OutcomeNoProfit:
		return failureVoteWeight, false
	case types.OutcomeExpired:
		return legacyVoteWeight, o.ProfitLoss > 0
	default:
		return 0, false
	}
}

// attribute picks the indicators credited (or blamed) for a trade.
func (o *Optimizer) attribute(out types.TradeOutcome, indicators []string) []string {
	if o.snapshot == nil {
		return indicators
	}
	fv, ok := o.snapshot(out.Symbol)
	if !ok {
		return indicators
	}
	var agreed []string
	for _, ind := range indicators {
		raw, present := fv.Indicator(ind)
		if !present {
			continue
		}
		if indicatorLeaning(ind, raw) == out.SignalType {
			agreed = append(agreed, ind)
		}
	}
	if len(agreed) == 0 {
		return indicators
	}
	return agreed
}

// indicatorLeaning gives the crude directional read of one indicator,
// matching the heuristics the fallback signal path uses.
func indicatorLeaning(ind string, v float64) types.Signal {
	switch ind {
	case types.IndicatorRSI:
		if v < 35 {
			return types.SignalLong // oversold
		}
		if v > 65 {
			return types.SignalShort
		}
	case types.IndicatorStochastic:
		if v < 20 {
			return types.SignalLong
		}
		if v > 80 {
			return types.SignalShort
		}
	case types.IndicatorMACD:
		if v > 0 {
			return types.SignalLong
		}
		if v < 0 {
			return types.SignalShort
		}
	}
	return types.SignalWait
}

// TierMultiplier returns the multiplicative adjustment for a success
// ratio.
func TierMultiplier(ratio float64) float64 {
	switch {
	case ratio > 0.75:
		return 2.00
	case ratio > 0.65:
		return 1.75
	case ratio > 0.55:
		return 1.50
	case ratio < 0.25:
		return 0.25
	case ratio < 0.35:
		return 0.50
	case ratio < 0.45:
		return 0.75
	default:
		return 1.0
	}
}

// ApplyTally mutates weights in place through the tiered rule, clamped
// to the configured bound. An adjustment below the minimum delta is
// dropped to avoid churn on noise. Returns the indicators changed.
func (o *Optimizer) ApplyTally(weights map[string]float64, tallies map[string]VoteTally) []string {
	var changed []string
	for ind, tally := range tallies {
		current, ok := weights[ind]
		if !ok {
			continue
		}
		mult := TierMultiplier(tally.SuccessRatio())
		if mult == 1.0 {
			continue
		}
		next := mathx.Clamp(current*mult, o.cfg.WeightFloor, o.cfg.WeightCeil)
		if math.Abs(next-current) <= o.cfg.MinAdjustDelta {
			continue
		}
		weights[ind] = next
		changed = append(changed, ind)
		logger.Debugf("optimizer: %s weight %.3f -> %.3f (ratio=%.2f)", ind, current, next, tally.SuccessRatio())
	}
	return changed
}
