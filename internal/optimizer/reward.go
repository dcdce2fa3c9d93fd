// Package optimizer turns completed-trade outcomes into graded rewards,
// indicator weight adjustments, and exploratory weight experiments.
package optimizer

import (
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"
)

// Graded reward bounds. The base ±1.0 term plus the excursion bonus and
// drawdown penalty does not hold the bound algebraically, so the clamp
// is explicit.
const (
	RewardMin = -1.4
	RewardMax = 1.4

	excursionBonusCap  = 0.2
	drawdownPenaltyCap = 0.2
)

// GradedReward converts one completed trade into a continuous learning
// signal: base outcome reward, plus a bonus for favorable excursion,
// minus a penalty for drawdown.
func GradedReward(o types.TradeOutcome) float64 {
	base := TrainingTarget(o)

	bonus := 0.0
	if o.EntryPrice > 0 && o.MaxFavorableExcursion > 0 {
		bonus = mathx.Clamp(o.MaxFavorableExcursion/o.EntryPrice, 0, excursionBonusCap)
	}
	penalty := 0.0
	if o.EntryPrice > 0 && o.MaxDrawdown > 0 {
		penalty = mathx.Clamp(o.MaxDrawdown/o.EntryPrice, 0, drawdownPenaltyCap)
	}
	return mathx.Clamp(mathx.Sanitize(base+bonus-penalty, 0), RewardMin, RewardMax)
}

// TrainingTarget maps an outcome onto [-1, 1]: +1 for profitable
// terminals, -1 for losing terminals, and a profit/loss-scaled value
// for legacy EXPIRED rows.
func TrainingTarget(o types.TradeOutcome) float64 {
	switch o.ActualOutcome {
	case types.OutcomeTPHit, types.OutcomePulloutProfit:
		return 1
	case types.OutcomeSLHit, types.OutcomeNoProfit:
		return -1
	case types.OutcomeExpired:
		if o.EntryPrice <= 0 {
			return 0
		}
		return mathx.Clamp(mathx.Sanitize(o.ProfitLoss/o.EntryPrice*10, 0), -1, 1)
	default:
		return 0
	}
}

// DirectionalTarget maps an outcome onto [0,1] as a price-direction
// label for the learners: 1 means price moved up. A successful SHORT
// means price moved down.
func DirectionalTarget(o types.TradeOutcome) float64 {
	signed := TrainingTarget(o) * o.SignalType.Encoded()
	return mathx.Clamp((signed+1)/2, 0, 1)
}
