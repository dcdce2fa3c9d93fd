// Package overfit watches for in-sample/out-of-sample divergence and
// computes the uncertainty diagnostics behind the engine's corrective
// countermeasures.
package overfit

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/logger"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"

	"gonum.org/v1/gonum/stat"
)

// Interval is a bootstrap confidence interval.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Assessment reports one divergence check.
type Assessment struct {
	InTrend   float64
	OutTrend  float64
	Divergent bool
	// Triggered is set when the consecutive-divergence counter reached
	// its limit; the caller must apply countermeasures. The counter is
	// reset as part of the trigger.
	Triggered bool
}

// Monitor keeps the rolling accuracy windows and prediction samples.
type Monitor struct {
	cfg config.OverfitConfig

	mu          sync.Mutex
	inSample    []float64
	outSample   []float64
	divergences int
	flagged     bool

	profitAll   []float64
	profitLong  []float64
	profitShort []float64
	confidences []float64
	cvHistory   []float64

	rng *rand.Rand
}

func New(cfg config.OverfitConfig, rng *rand.Rand) *Monitor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Monitor{cfg: cfg, rng: rng}
}

// RecordCycle appends one training cycle's in-sample and out-of-sample
// accuracies.
func (m *Monitor) RecordCycle(inAcc, outAcc float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inSample = appendBounded(m.inSample, mathx.Clamp(mathx.Sanitize(inAcc, 0), 0, 1), m.cfg.Window)
	m.outSample = appendBounded(m.outSample, mathx.Clamp(mathx.Sanitize(outAcc, 0), 0, 1), m.cfg.Window)
}

// RecordPrediction samples an emitted prediction for the bootstrap and
// uncertainty diagnostics.
func (m *Monitor) RecordPrediction(dir types.Signal, confidence, profitLikelihood float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profitAll = appendBounded(m.profitAll, profitLikelihood, m.cfg.Window)
	switch dir {
	case types.SignalLong:
		m.profitLong = appendBounded(m.profitLong, profitLikelihood, m.cfg.Window)
	case types.SignalShort:
		m.profitShort = appendBounded(m.profitShort, profitLikelihood, m.cfg.Window)
	}
	m.confidences = appendBounded(m.confidences, confidence, m.cfg.Window)
}

// Assess computes the accuracy trends and advances the divergence
// counter. When the counter reaches the configured limit the assessment
// demands countermeasures and the counter resets.
func (m *Monitor) Assess() Assessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := Assessment{
		InTrend:  trendSlope(m.inSample, m.cfg.TrendPoints),
		OutTrend: trendSlope(m.outSample, m.cfg.TrendPoints),
	}
	a.Divergent = a.InTrend > m.cfg.InSampleTrendMax && a.OutTrend < m.cfg.OutSampleTrendMin
	if a.Divergent {
		m.divergences++
		m.flagged = true
		logger.Warnf("overfit: divergence %d/%d (in=%.3f out=%.3f)",
			m.divergences, m.cfg.DivergenceLimit, a.InTrend, a.OutTrend)
	} else {
		m.divergences = 0
		m.flagged = false
	}
	if m.divergences >= m.cfg.DivergenceLimit {
		a.Triggered = true
		m.divergences = 0
	}
	return a
}

// Flagged reports whether the last assessment saw divergence.
func (m *Monitor) Flagged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flagged
}

// trendSlope is the least-squares slope over the last n points.
func trendSlope(window []float64, n int) float64 {
	if len(window) < n || n < 2 {
		return 0
	}
	tail := window[len(window)-n:]
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, tail, nil, false)
	return mathx.Sanitize(beta, 0)
}

// BootstrapIntervals resamples the recent profit-likelihood samples and
// returns the configured-level interval per direction and overall.
func (m *Monitor) BootstrapIntervals() map[string]Interval {
	m.mu.Lock()
	all := append([]float64(nil), m.profitAll...)
	long := append([]float64(nil), m.profitLong...)
	short := append([]float64(nil), m.profitShort...)
	m.mu.Unlock()

	return map[string]Interval{
		"overall": m.bootstrap(all),
		"long":    m.bootstrap(long),
		"short":   m.bootstrap(short),
	}
}

func (m *Monitor) bootstrap(samples []float64) Interval {
	if len(samples) == 0 {
		return Interval{}
	}
	size := len(samples)
	if size > m.cfg.BootstrapSample {
		size = m.cfg.BootstrapSample
	}
	means := make([]float64, m.cfg.BootstrapResamples)
	m.mu.Lock()
	for i := range means {
		sum := 0.0
		for j := 0; j < size; j++ {
			sum += samples[m.rng.Intn(len(samples))]
		}
		means[i] = sum / float64(size)
	}
	m.mu.Unlock()
	sort.Float64s(means)
	tail := (1 - m.cfg.IntervalLevel) / 2
	lo := int(tail * float64(len(means)))
	hi := int((1 - tail) * float64(len(means)))
	if hi >= len(means) {
		hi = len(means) - 1
	}
	return Interval{Low: means[lo], High: means[hi]}
}

// Uncertainty returns the coefficient of variation of recent
// confidence, whether it is trending upward, and whether the rise
// crossed the alert ratio. Alerts are corrective context for the
// engine, logged rather than surfaced as errors.
func (m *Monitor) Uncertainty() (cv float64, rising bool, alert bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.confidences) < 2 {
		return 0, false, false
	}
	mean, sd := stat.MeanStdDev(m.confidences, nil)
	if mean == 0 {
		return 0, false, false
	}
	cv = mathx.Sanitize(math.Abs(sd/mean), 0)
	m.cvHistory = appendBounded(m.cvHistory, cv, m.cfg.Window)

	rising = trendSlope(m.cvHistory, m.cfg.TrendPoints) > 0
	if n := len(m.cvHistory); n >= 2 && rising {
		first := m.cvHistory[0]
		if first > 0 && (cv-first)/first > m.cfg.UncertaintyRise {
			alert = true
			logger.Warnf("overfit: uncertainty rising, cv=%.3f (+%.0f%%)", cv, (cv-first)/first*100)
		}
	}
	return cv, rising, alert
}

// AccuracyWindows copies the rolling windows for status snapshots.
func (m *Monitor) AccuracyWindows() (inSample, outSample []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.inSample...), append([]float64(nil), m.outSample...)
}

func appendBounded(window []float64, v float64, limit int) []float64 {
	window = append(window, v)
	if len(window) > limit {
		window = window[len(window)-limit:]
	}
	return window
}
