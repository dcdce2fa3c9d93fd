package optimizer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"signalcore/internal/config"
	"signalcore/internal/types"
)

func newTestOptimizer(snapshot SnapshotFn) *Optimizer {
	cfg := config.Default()
	return New(cfg.Optimizer, rand.New(rand.NewSource(1)), snapshot)
}

func legacyOutcome(symbol string, pnl float64) types.TradeOutcome {
	return types.TradeOutcome{
		Symbol:        symbol,
		SignalType:    types.SignalLong,
		EntryPrice:    100,
		ActualOutcome: types.OutcomeExpired,
		ProfitLoss:    pnl,
	}
}

func TestApplyTallyTieredAdjustment(t *testing.T) {
	opt := newTestOptimizer(nil)

	// 6 winning and 4 losing legacy trades vote at equal weight, so the
	// success ratio lands exactly at 0.6 and the x1.50 tier applies.
	outcomes := make([]types.TradeOutcome, 0, 10)
	for i := 0; i < 6; i++ {
		outcomes = append(outcomes, legacyOutcome("BTCUSDT", 5))
	}
	for i := 0; i < 4; i++ {
		outcomes = append(outcomes, legacyOutcome("BTCUSDT", -5))
	}

	tallies := opt.TallyVotes(outcomes, []string{"rsi"})
	assert.InDelta(t, 0.6, tallies["rsi"].SuccessRatio(), 1e-9)

	weights := map[string]float64{"rsi": 2.5}
	changed := opt.ApplyTally(weights, tallies)
	assert.Equal(t, []string{"rsi"}, changed)
	assert.InDelta(t, 3.75, weights["rsi"], 1e-9)
}

func TestTallyVotesWeighted(t *testing.T) {
	opt := newTestOptimizer(nil)

	outcomes := []types.TradeOutcome{
		{Symbol: "ETHUSDT", ActualOutcome: types.OutcomeTPHit},
		{Symbol: "ETHUSDT", ActualOutcome: types.OutcomeSLHit},
	}
	tallies := opt.TallyVotes(outcomes, []string{"macd"})
	assert.InDelta(t, 5.0, tallies["macd"].Positive, 1e-9)
	assert.InDelta(t, 3.0, tallies["macd"].Negative, 1e-9)
	assert.InDelta(t, 5.0/8.0, tallies["macd"].SuccessRatio(), 1e-9)
}

func TestTallyVotesAttributesAgreeingIndicators(t *testing.T) {
	snapshot := func(string) (types.FeatureVector, bool) {
		return types.FeatureVector{
			Symbol: "BTCUSDT",
			Indicators: map[string]float64{
				types.IndicatorRSI:  25, // oversold, agrees with LONG
				types.IndicatorMACD: -1, // bearish, disagrees
			},
		}, true
	}
	opt := newTestOptimizer(snapshot)

	outcomes := []types.TradeOutcome{{
		Symbol:        "BTCUSDT",
		SignalType:    types.SignalLong,
		ActualOutcome: types.OutcomeTPHit,
	}}
	tallies := opt.TallyVotes(outcomes, []string{types.IndicatorRSI, types.IndicatorMACD})
	assert.InDelta(t, 5.0, tallies[types.IndicatorRSI].Positive, 1e-9)
	assert.Zero(t, tallies[types.IndicatorMACD].Positive)
}

func TestApplyTallyRespectsBounds(t *testing.T) {
	opt := newTestOptimizer(nil)

	tallies := map[string]VoteTally{
		"hot":  {Positive: 100, Negative: 1},
		"cold": {Positive: 1, Negative: 100},
	}
	weights := map[string]float64{"hot": 4.0, "cold": 1.2}
	opt.ApplyTally(weights, tallies)
	assert.InDelta(t, 5.0, weights["hot"], 1e-9)
	assert.InDelta(t, 1.0, weights["cold"], 1e-9)
}

func TestApplyTallySkipsSmallDelta(t *testing.T) {
	opt := newTestOptimizer(nil)

	// x0.75 tier on a weight of 1.1 yields a move to the 1.0 floor,
	// which is within the 0.2 churn guard.
	tallies := map[string]VoteTally{"rsi": {Positive: 4, Negative: 6}}
	weights := map[string]float64{"rsi": 1.1}
	changed := opt.ApplyTally(weights, tallies)
	assert.Empty(t, changed)
	assert.InDelta(t, 1.1, weights["rsi"], 1e-9)
}

func TestTierMultiplier(t *testing.T) {
	cases := []struct {
		ratio float64
		want  float64
	}{
		{0.80, 2.00},
		{0.70, 1.75},
		{0.60, 1.50},
		{0.50, 1.00},
		{0.40, 0.75},
		{0.30, 0.50},
		{0.20, 0.25},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, TierMultiplier(tc.ratio), 1e-9, "ratio %v", tc.ratio)
	}
}

func TestGradedRewardClamped(t *testing.T) {
	o := types.TradeOutcome{
		ActualOutcome:         types.OutcomeTPHit,
		EntryPrice:            100,
		MaxFavorableExcursion: 1000, // bonus saturates at 0.2
	}
	assert.InDelta(t, 1.2, GradedReward(o), 1e-9)

	o.MaxDrawdown = 1000 // penalty saturates too
	assert.InDelta(t, 1.0, GradedReward(o), 1e-9)

	lose := types.TradeOutcome{
		ActualOutcome: types.OutcomeSLHit,
		EntryPrice:    100,
		MaxDrawdown:   1000,
	}
	assert.InDelta(t, -1.2, GradedReward(lose), 1e-9)
	assert.GreaterOrEqual(t, GradedReward(lose), RewardMin)
}

func TestDirectionalTarget(t *testing.T) {
	win := types.TradeOutcome{SignalType: types.SignalShort, ActualOutcome: types.OutcomeTPHit}
	assert.InDelta(t, 0.0, DirectionalTarget(win), 1e-9) // successful short means price fell

	lossShort := types.TradeOutcome{SignalType: types.SignalShort, ActualOutcome: types.OutcomeSLHit}
	assert.InDelta(t, 1.0, DirectionalTarget(lossShort), 1e-9)

	winLong := types.TradeOutcome{SignalType: types.SignalLong, ActualOutcome: types.OutcomePulloutProfit}
	assert.InDelta(t, 1.0, DirectionalTarget(winLong), 1e-9)
}

func TestRunExperimentKeepsWeightsBounded(t *testing.T) {
	opt := newTestOptimizer(nil)

	outcomes := []types.TradeOutcome{
		{Symbol: "BTCUSDT", ActualOutcome: types.OutcomeTPHit},
		{Symbol: "BTCUSDT", ActualOutcome: types.OutcomeSLHit},
		{Symbol: "BTCUSDT", ActualOutcome: types.OutcomeTPHit},
	}
	weights := map[string]float64{"rsi": 2.0, "macd": 1.0}
	tallies := opt.TallyVotes(opt.EvaluationSlice(outcomes), []string{"rsi", "macd"})
	for i := 0; i < 20; i++ {
		exp := opt.RunExperiment(weights, tallies)
		assert.NotNil(t, exp)
		assert.NotEmpty(t, exp.ID)
		for k, w := range weights {
			assert.False(t, math.IsNaN(w), "weight %s", k)
			assert.GreaterOrEqual(t, w, GlobalWeightFloor)
			assert.LessOrEqual(t, w, GlobalWeightCeil)
		}
	}
}

func TestEvaluationSliceKeepsMostRecent(t *testing.T) {
	opt := newTestOptimizer(nil)

	outcomes := make([]types.TradeOutcome, 0, 150)
	for i := 0; i < 150; i++ {
		symbol := "OLD"
		if i >= 50 {
			symbol = "NEW"
		}
		outcomes = append(outcomes, legacyOutcome(symbol, 5))
	}

	window := opt.EvaluationSlice(outcomes)
	assert.Len(t, window, 100)
	for _, o := range window {
		assert.Equal(t, "NEW", o.Symbol)
	}

	short := []types.TradeOutcome{legacyOutcome("BTCUSDT", 5)}
	assert.Len(t, opt.EvaluationSlice(short), 1)
}
