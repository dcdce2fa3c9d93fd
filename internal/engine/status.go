package engine

import (
	"signalcore/internal/filter"
	"signalcore/internal/optimizer"
	"signalcore/internal/overfit"
	"signalcore/internal/types"
)

// PerformanceMetrics aggregates the rolling success statistics exposed
// through Status.
type PerformanceMetrics struct {
	SuccessRate        float64                     `json:"success_rate"`
	LongSuccessRate    float64                     `json:"long_success_rate"`
	ShortSuccessRate   float64                     `json:"short_success_rate"`
	CompletedTrades    int                         `json:"completed_trades"`
	BootstrapIntervals map[string]overfit.Interval `json:"bootstrap_intervals,omitempty"`
	UncertaintyCV      float64                     `json:"uncertainty_cv"`
	UncertaintyRising  bool                        `json:"uncertainty_rising"`
	UncertaintyAlert   bool                        `json:"uncertainty_alert"`
	OverfittingFlagged bool                        `json:"overfitting_flagged"`
}

// Status is the full diagnostic snapshot of the engine.
type Status struct {
	TrainingCycle    int                     `json:"training_cycle"`
	Weights          map[string]float64      `json:"weights"`
	WeightMeta       []types.FeatureWeight   `json:"weight_meta"`
	Thresholds       filter.Thresholds       `json:"thresholds"`
	ThresholdHistory []filter.ThresholdChange `json:"threshold_history,omitempty"`
	BufferedRecords  int                     `json:"buffered_records"`
	Experiments      []optimizer.Experiment  `json:"experiments,omitempty"`
	MetaTrained      bool                    `json:"meta_trained"`
	Performance      PerformanceMetrics      `json:"performance"`
}

// Status assembles the diagnostic snapshot. Safe to call concurrently
// with signal generation and training.
func (e *Engine) Status() Status {
	_, thresholds, history := e.filter.Snapshot()
	cv, rising, alert := e.monitor.Uncertainty()

	e.mu.RLock()
	weights := make(map[string]float64, len(e.weights))
	meta := make([]types.FeatureWeight, 0, len(e.weights))
	for k, v := range e.weights {
		weights[k] = v
		meta = append(meta, types.FeatureWeight{
			Indicator:   k,
			Weight:      v,
			LastUpdated: e.weightUpdated[k],
		})
	}
	cycle := e.trainingCycle
	experiments := append([]optimizer.Experiment(nil), e.experiments...)
	e.mu.RUnlock()

	return Status{
		TrainingCycle:    cycle,
		Weights:          weights,
		WeightMeta:       meta,
		Thresholds:       thresholds,
		ThresholdHistory: history,
		BufferedRecords:  e.filter.BufferLen(),
		Experiments:      experiments,
		MetaTrained:      e.meta.Trained(),
		Performance: PerformanceMetrics{
			SuccessRate:        e.calibrator.SuccessRate(),
			LongSuccessRate:    e.calibrator.DirectionalRate(types.SignalLong),
			ShortSuccessRate:   e.calibrator.DirectionalRate(types.SignalShort),
			CompletedTrades:    e.calibrator.CompletedTrades(),
			BootstrapIntervals: e.monitor.BootstrapIntervals(),
			UncertaintyCV:      cv,
			UncertaintyRising:  rising,
			UncertaintyAlert:   alert,
			OverfittingFlagged: e.monitor.Flagged(),
		},
	}
}

// History returns the stabilized output history for one symbol.
func (e *Engine) History(symbol string) []types.SignalHistoryEntry {
	return e.stabilizer.History(symbol)
}
