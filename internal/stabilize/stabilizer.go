// Package stabilize smooths and rate-limits per-symbol signal output so
// downstream consumers never see churn from micro price noise.
package stabilize

import (
	"math"
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"

	"gonum.org/v1/gonum/stat"
)

// Window over which percent price changes feed the volatility tiers.
const volatilityWindow = 5 * time.Minute

// Output is one stabilized signal emission.
type Output struct {
	Signal           types.Signal
	Confidence       float64
	ProfitLikelihood float64
	Stabilized       bool
}

type pricePoint struct {
	at    time.Time
	price float64
}

// symbolState is locked independently so one symbol's update can never
// starve another's.
type symbolState struct {
	mu         sync.Mutex
	history    []types.SignalHistoryEntry
	prices     []pricePoint
	lastPrice  float64
	hasPrice   bool
	lastOutput Output
	hasOutput  bool
}

// Stabilizer holds per-symbol smoothing state.
type Stabilizer struct {
	cfg config.StabilizeConfig

	mu      sync.Mutex
	symbols map[string]*symbolState
	nowFn   func() time.Time
}

func New(cfg config.StabilizeConfig) *Stabilizer {
	return &Stabilizer{
		cfg:     cfg,
		symbols: make(map[string]*symbolState),
		nowFn:   time.Now,
	}
}

func (s *Stabilizer) state(symbol string) *symbolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.symbols[symbol]
	if st == nil {
		st = &symbolState{}
		s.symbols[symbol] = st
	}
	return st
}

// Apply runs the stabilization pipeline for one raw emission. When the
// price has moved less than the epsilon since the previous call, the
// previous output is returned untouched.
func (s *Stabilizer) Apply(symbol string, signal types.Signal, confidence, profit, price float64) Output {
	now := s.nowFn()
	st := s.state(symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	confidence = mathx.Sanitize(confidence, 0)
	profit = mathx.Sanitize(profit, 0)

	// Price freeze: micro moves repeat the previous output verbatim.
	if st.hasPrice && st.hasOutput && st.lastPrice > 0 {
		movePct := math.Abs(price-st.lastPrice) / st.lastPrice * 100
		if movePct < s.cfg.PriceEpsilonPct {
			return st.lastOutput
		}
	}

	st.recordPrice(now, price)
	maxDelta := s.cfg.BaseMaxDelta * st.volatilityMultiplier()

	out := Output{Signal: signal, Confidence: confidence, ProfitLikelihood: profit}
	if st.hasOutput {
		prev := st.lastOutput
		smoothedConf := mathx.EMA(prev.Confidence, confidence, s.cfg.SmoothAlpha)
		smoothedProfit := mathx.EMA(prev.ProfitLikelihood, profit, s.cfg.SmoothAlpha)
		out.Confidence = clampDelta(prev.Confidence, smoothedConf, maxDelta)
		out.ProfitLikelihood = clampDelta(prev.ProfitLikelihood, smoothedProfit, maxDelta)

		if signal != prev.Signal {
			confDelta := math.Abs(confidence - prev.Confidence)
			if confDelta < s.cfg.DirectionFlipDelta {
				// Not enough conviction to flip: hold the previous
				// direction and average toward it.
				out.Signal = prev.Signal
				out.Confidence = (out.Confidence + prev.Confidence) / 2
				out.ProfitLikelihood = (out.ProfitLikelihood + prev.ProfitLikelihood) / 2
				out.Stabilized = true
			}
		}
	}

	st.lastPrice = price
	st.hasPrice = true
	st.lastOutput = out
	st.hasOutput = true

	st.history = append(st.history, types.SignalHistoryEntry{
		Signal:           out.Signal,
		Confidence:       out.Confidence,
		ProfitLikelihood: out.ProfitLikelihood,
		Timestamp:        now.UTC(),
	})
	st.trimHistory(now, s.cfg.HistoryLimit, time.Duration(s.cfg.WindowMinutes)*time.Minute)
	return out
}

func (st *symbolState) recordPrice(now time.Time, price float64) {
	st.prices = append(st.prices, pricePoint{at: now, price: price})
	cutoff := now.Add(-volatilityWindow)
	i := 0
	for i < len(st.prices) && st.prices[i].at.Before(cutoff) {
		i++
	}
	st.prices = st.prices[i:]
}

// volatilityMultiplier tiers the max-delta budget by the stddev of
// recent percent price changes.
func (st *symbolState) volatilityMultiplier() float64 {
	if len(st.prices) < 3 {
		return 1
	}
	changes := make([]float64, 0, len(st.prices)-1)
	for i := 1; i < len(st.prices); i++ {
		prev := st.prices[i-1].price
		if prev <= 0 {
			continue
		}
		changes = append(changes, (st.prices[i].price-prev)/prev*100)
	}
	if len(changes) < 2 {
		return 1
	}
	sd := stat.StdDev(changes, nil)
	switch {
	case sd < 0.1:
		return 0.5
	case sd < 0.5:
		return 1
	case sd < 1:
		return 2
	default:
		return 3
	}
}

func (st *symbolState) trimHistory(now time.Time, limit int, window time.Duration) {
	if len(st.history) > limit {
		st.history = st.history[len(st.history)-limit:]
	}
	cutoff := now.Add(-window)
	i := 0
	for i < len(st.history) && st.history[i].Timestamp.Before(cutoff) {
		i++
	}
	st.history = st.history[i:]
}

// History returns a copy of the retained entries for one symbol.
func (s *Stabilizer) History(symbol string) []types.SignalHistoryEntry {
	st := s.state(symbol)
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]types.SignalHistoryEntry, len(st.history))
	copy(out, st.history)
	return out
}

func clampDelta(prev, next, maxDelta float64) float64 {
	delta := next - prev
	if delta > maxDelta {
		return prev + maxDelta
	}
	if delta < -maxDelta {
		return prev - maxDelta
	}
	return next
}
