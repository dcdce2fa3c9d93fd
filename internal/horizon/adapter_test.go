package horizon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"signalcore/internal/config"
)

func newTestAdapter() *Adapter {
	return New(config.Default().Horizon)
}

// flat returns 20 per-minute accuracies with distinct bucket values.
func flat(short, mid, long float64) []float64 {
	out := make([]float64, 20)
	for i := range out {
		switch {
		case i < 5:
			out[i] = short
		case i < 12:
			out[i] = mid
		default:
			out[i] = long
		}
	}
	return out
}

func TestBucketAverages(t *testing.T) {
	a := newTestAdapter()
	b := a.Bucket(flat(0.8, 0.6, 0.4))
	assert.InDelta(t, 0.8, b.Short, 1e-9)
	assert.InDelta(t, 0.6, b.Mid, 1e-9)
	assert.InDelta(t, 0.4, b.Long, 1e-9)
}

func TestBucketHandlesShortInput(t *testing.T) {
	a := newTestAdapter()
	b := a.Bucket([]float64{0.7, 0.7, 0.7})
	assert.InDelta(t, 0.7, b.Short, 1e-9)
	assert.Zero(t, b.Mid)
	assert.Zero(t, b.Long)
}

func TestWeightedAccuracyUsesConfiguredWeights(t *testing.T) {
	a := newTestAdapter()
	got := a.WeightedAccuracy(Buckets{Short: 1, Mid: 1, Long: 1})
	assert.InDelta(t, 1.0, got, 1e-9) // weights sum to 1

	got = a.WeightedAccuracy(Buckets{Short: 1})
	assert.InDelta(t, 0.40, got, 1e-9)
}

func TestConfidenceBoostClamped(t *testing.T) {
	a := newTestAdapter()

	assert.Zero(t, a.ConfidenceBoost(nil))
	assert.Zero(t, a.ConfidenceBoost(flat(0.5, 0.5, 0.5)), "below the pivot earns nothing")

	// Weighted accuracy 0.7 sits 0.1 over the pivot: boost 5.
	assert.InDelta(t, 5, a.ConfidenceBoost(flat(0.7, 0.7, 0.7)), 1e-9)

	// Perfect accuracy saturates at the cap.
	assert.InDelta(t, 15, a.ConfidenceBoost(flat(1, 1, 1)), 1e-9)
}

func TestRiskMatrix(t *testing.T) {
	a := newTestAdapter()

	cases := []struct {
		name           string
		accs           []float64
		wantTP, wantSL float64
		wantProfile    string
	}{
		{"short-horizon", flat(0.8, 0.5, 0.4), 0.7, 1.0, "short-horizon"},
		{"long-horizon", flat(0.4, 0.5, 0.8), 1.3, 1.2, "long-horizon"},
		{"balanced", flat(0.6, 0.7, 0.6), 1.0, 0.9, "balanced"},
		{"conservative", flat(0.5, 0.5, 0.5), 0.8, 0.8, "conservative"},
	}
	for _, tc := range cases {
		adj := a.Risk(tc.accs)
		assert.InDelta(t, tc.wantTP, adj.TakeProfitFactor, 1e-9, tc.name)
		assert.InDelta(t, tc.wantSL, adj.StopLossFactor, 1e-9, tc.name)
		assert.Equal(t, tc.wantProfile, adj.Profile, tc.name)
	}
}

func TestApplyRiskScalesOffsets(t *testing.T) {
	// Long orientation: entry 100, TP 110, SL 95.
	tp, sl := ApplyRisk(100, 110, 95, RiskAdjustment{TakeProfitFactor: 0.7, StopLossFactor: 1.0})
	assert.InDelta(t, 107, tp, 1e-9)
	assert.InDelta(t, 95, sl, 1e-9)

	// Short orientation: offsets are negative-side and stay signed.
	tp, sl = ApplyRisk(100, 90, 105, RiskAdjustment{TakeProfitFactor: 1.3, StopLossFactor: 1.2})
	assert.InDelta(t, 87, tp, 1e-9)
	assert.InDelta(t, 106, sl, 1e-9)
}
