// Package horizon blends per-minute forecast accuracy across time
// buckets into a confidence boost and risk-level sizing adjustments.
package horizon

import (
	"signalcore/internal/config"
	"signalcore/internal/pkg/mathx"

	"github.com/shopspring/decimal"
)

// Bucket boundaries over the 1..20 minute horizons.
const (
	shortEnd = 5
	midEnd   = 12
	longEnd  = 20
)

// Accuracy cutoffs for the risk matrix.
const (
	strongAccuracy = 0.65
	weakAccuracy   = 0.55
)

// Buckets holds the average forecast accuracy per horizon bucket.
type Buckets struct {
	Short float64 `json:"short"`
	Mid   float64 `json:"mid"`
	Long  float64 `json:"long"`
}

// RiskAdjustment scales take-profit and stop-loss offsets from entry.
type RiskAdjustment struct {
	TakeProfitFactor float64 `json:"take_profit_factor"`
	StopLossFactor   float64 `json:"stop_loss_factor"`
	Profile          string  `json:"profile"`
}

// Adapter derives boosts and sizing from horizon accuracies.
type Adapter struct {
	cfg config.HorizonConfig
}

func New(cfg config.HorizonConfig) *Adapter {
	return &Adapter{cfg: cfg}
}

// Bucket averages the per-minute accuracies into short (1-5),
// mid (6-12), and long (13-20) buckets. Missing tail horizons simply
// shrink their bucket.
func (a *Adapter) Bucket(accuracies []float64) Buckets {
	avg := func(from, to int) float64 {
		sum, n := 0.0, 0
		for i := from; i < to && i < len(accuracies); i++ {
			v := accuracies[i]
			if !mathx.Finite(v) {
				continue
			}
			sum += mathx.Clamp(v, 0, 1)
			n++
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}
	return Buckets{
		Short: avg(0, shortEnd),
		Mid:   avg(shortEnd, midEnd),
		Long:  avg(midEnd, longEnd),
	}
}

// WeightedAccuracy combines the buckets with the configured weights.
func (a *Adapter) WeightedAccuracy(b Buckets) float64 {
	return b.Short*a.cfg.ShortWeight + b.Mid*a.cfg.MidWeight + b.Long*a.cfg.LongWeight
}

// ConfidenceBoost maps the weighted accuracy above the pivot onto a
// bounded additive confidence boost.
func (a *Adapter) ConfidenceBoost(accuracies []float64) float64 {
	if len(accuracies) == 0 {
		return 0
	}
	w := a.WeightedAccuracy(a.Bucket(accuracies))
	return mathx.Clamp((w-a.cfg.AccuracyPivot)*a.cfg.BoostScale, 0, a.cfg.BoostCap)
}

// Risk returns the sizing profile for the accuracy shape: accurate
// short horizons tighten the take-profit, accurate long horizons extend
// it, a strong mid keeps a balanced profile, and anything else sizes
// conservatively.
func (a *Adapter) Risk(accuracies []float64) RiskAdjustment {
	b := a.Bucket(accuracies)
	switch {
	case b.Short >= strongAccuracy && b.Long < weakAccuracy:
		return RiskAdjustment{TakeProfitFactor: 0.7, StopLossFactor: 1.0, Profile: "short-horizon"}
	case b.Long >= strongAccuracy && b.Short < weakAccuracy:
		return RiskAdjustment{TakeProfitFactor: 1.3, StopLossFactor: 1.2, Profile: "long-horizon"}
	case b.Mid >= strongAccuracy:
		return RiskAdjustment{TakeProfitFactor: 1.0, StopLossFactor: 0.9, Profile: "balanced"}
	default:
		return RiskAdjustment{TakeProfitFactor: 0.8, StopLossFactor: 0.8, Profile: "conservative"}
	}
}

// ApplyRisk rescales the signed offsets from entry by the adjustment
// factors. Decimal arithmetic keeps the level math exact for both long
// and short orientations.
func ApplyRisk(entry, takeProfit, stopLoss float64, adj RiskAdjustment) (tp, sl float64) {
	e := decimal.NewFromFloat(entry)
	tpOffset := decimal.NewFromFloat(takeProfit).Sub(e)
	slOffset := decimal.NewFromFloat(stopLoss).Sub(e)

	tpScaled := e.Add(tpOffset.Mul(decimal.NewFromFloat(adj.TakeProfitFactor)))
	slScaled := e.Add(slOffset.Mul(decimal.NewFromFloat(adj.StopLossFactor)))

	tp, _ = tpScaled.Float64()
	sl, _ = slScaled.Float64()
	return tp, sl
}
