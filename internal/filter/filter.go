// Package filter holds the rolling prediction buffer and rejects
// statistically weak signals against adaptive thresholds.
package filter

import (
	"fmt"
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"

	"gonum.org/v1/gonum/stat"
)

// Thresholds is the current adaptive floor pair.
type Thresholds struct {
	MinConfidence float64 `json:"min_confidence"`
	MinProfit     float64 `json:"min_profit"`
}

// ThresholdChange is one recompute event kept for the status surface.
type ThresholdChange struct {
	At            time.Time `json:"at"`
	MinConfidence float64   `json:"min_confidence"`
	MinProfit     float64   `json:"min_profit"`
	Reason        string    `json:"reason"`
}

// Result reports whether a signal passed the filter.
type Result struct {
	Passed bool
	Reason string
}

// Filter maintains the bounded FIFO prediction buffer and the adaptive
// thresholds derived from it.
type Filter struct {
	cfg config.FilterConfig

	mu              sync.Mutex
	buffer          []types.PredictionRecord
	sinceRecompute  int
	thresholds      Thresholds
	confidenceFloor float64
	profitFloor     float64
	changes         []ThresholdChange
	nowFn           func() time.Time
}

func New(cfg config.FilterConfig) *Filter {
	f := &Filter{
		cfg:             cfg,
		confidenceFloor: cfg.ConfidenceFloor,
		profitFloor:     cfg.ProfitFloor,
		nowFn:           time.Now,
	}
	f.thresholds = Thresholds{MinConfidence: f.confidenceFloor, MinProfit: f.profitFloor}
	return f
}

// Record appends one prediction, evicting oldest-first at capacity, and
// recomputes thresholds every cfg.RecomputeEvery new records.
func (f *Filter) Record(rec types.PredictionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = append(f.buffer, rec)
	if len(f.buffer) > f.cfg.BufferCapacity {
		f.buffer = f.buffer[len(f.buffer)-f.cfg.BufferCapacity:]
	}
	f.sinceRecompute++
	if f.sinceRecompute >= f.cfg.RecomputeEvery {
		f.recomputeLocked("periodic")
		f.sinceRecompute = 0
	}
}

// Recompute forces a threshold refresh, used by the scheduler tick.
func (f *Filter) Recompute() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputeLocked("forced")
	f.sinceRecompute = 0
}

func (f *Filter) recomputeLocked(reason string) {
	if len(f.buffer) < f.cfg.MinBufferSize {
		return
	}
	confs := make([]float64, len(f.buffer))
	profits := make([]float64, len(f.buffer))
	for i, r := range f.buffer {
		confs[i] = r.Confidence
		profits[i] = r.ProfitLikelihood
	}
	cMean, cStd := stat.MeanStdDev(confs, nil)
	pMean, pStd := stat.MeanStdDev(profits, nil)

	f.thresholds = Thresholds{
		MinConfidence: mathx.Sanitize(maxf(f.confidenceFloor, cMean-cStd), f.confidenceFloor),
		MinProfit:     mathx.Sanitize(maxf(f.profitFloor, pMean-pStd), f.profitFloor),
	}
	f.changes = append(f.changes, ThresholdChange{
		At:            f.nowFn().UTC(),
		MinConfidence: f.thresholds.MinConfidence,
		MinProfit:     f.thresholds.MinProfit,
		Reason:        reason,
	})
	if len(f.changes) > 20 {
		f.changes = f.changes[len(f.changes)-20:]
	}
}

// Evaluate checks a signal against the thresholds. Under-filled buffers
// pass everything; otherwise a signal is rejected only when BOTH
// confidence and profit likelihood fall below their thresholds.
func (f *Filter) Evaluate(confidence, profit float64) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buffer) < f.cfg.MinBufferSize {
		return Result{Passed: true}
	}
	belowC := confidence < f.thresholds.MinConfidence
	belowP := profit < f.thresholds.MinProfit
	if belowC && belowP {
		return Result{
			Passed: false,
			Reason: fmt.Sprintf("confidence %.1f below %.1f and profit likelihood %.1f below %.1f",
				confidence, f.thresholds.MinConfidence, profit, f.thresholds.MinProfit),
		}
	}
	return Result{Passed: true}
}

// Thresholds returns the current pair. Calling it repeatedly without
// new records returns identical values.
func (f *Filter) Thresholds() Thresholds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thresholds
}

// RaiseMinConfidence lifts the confidence floor by step, capped. Used
// by the overfitting countermeasures; the raised floor survives future
// recomputes because thresholds never drop below the floor.
func (f *Filter) RaiseMinConfidence(step, limit float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confidenceFloor = mathx.Clamp(f.confidenceFloor+step, 0, limit)
	if f.thresholds.MinConfidence < f.confidenceFloor {
		f.thresholds.MinConfidence = f.confidenceFloor
	}
	f.changes = append(f.changes, ThresholdChange{
		At:            f.nowFn().UTC(),
		MinConfidence: f.thresholds.MinConfidence,
		MinProfit:     f.thresholds.MinProfit,
		Reason:        "overfit countermeasure",
	})
	return f.confidenceFloor
}

// ResetToFloors drops both thresholds back to the configured hard
// floors, used by the stagnation breaker.
func (f *Filter) ResetToFloors() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confidenceFloor = f.cfg.ConfidenceFloor
	f.profitFloor = f.cfg.ProfitFloor
	f.thresholds = Thresholds{MinConfidence: f.confidenceFloor, MinProfit: f.profitFloor}
	f.changes = append(f.changes, ThresholdChange{
		At:            f.nowFn().UTC(),
		MinConfidence: f.thresholds.MinConfidence,
		MinProfit:     f.thresholds.MinProfit,
		Reason:        "stagnation reset",
	})
}

// BufferLen returns the current number of buffered predictions.
func (f *Filter) BufferLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffer)
}

// Snapshot copies the buffer, thresholds, and change history for
// persistence and status reads.
func (f *Filter) Snapshot() ([]types.PredictionRecord, Thresholds, []ThresholdChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]types.PredictionRecord, len(f.buffer))
	copy(buf, f.buffer)
	changes := make([]ThresholdChange, len(f.changes))
	copy(changes, f.changes)
	return buf, f.thresholds, changes
}

// Restore reloads state from a persisted snapshot.
func (f *Filter) Restore(buffer []types.PredictionRecord, th Thresholds) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer = append([]types.PredictionRecord(nil), buffer...)
	if len(f.buffer) > f.cfg.BufferCapacity {
		f.buffer = f.buffer[len(f.buffer)-f.cfg.BufferCapacity:]
	}
	if th.MinConfidence > 0 || th.MinProfit > 0 {
		f.thresholds = th
	}
	f.sinceRecompute = 0
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
