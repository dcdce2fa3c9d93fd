package types

import "time"

// Signal is the tradable direction emitted by the engine.
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalWait  Signal = "WAIT"
)

// Encoded maps the signal onto {-1, 0, 1} for model inputs.
func (s Signal) Encoded() float64 {
	switch s {
	case SignalLong:
		return 1
	case SignalShort:
		return -1
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known directions.
func (s Signal) Valid() bool {
	switch s {
	case SignalLong, SignalShort, SignalWait:
		return true
	}
	return false
}

// SignalResult is the calibrated output of a signal-generation call.
type SignalResult struct {
	Symbol            string             `json:"symbol"`
	Signal            Signal             `json:"signal"`
	Confidence        float64            `json:"confidence"`
	ProfitLikelihood  float64            `json:"profit_likelihood"`
	ModelExplanation  string             `json:"model_explanation"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	Stabilized        bool               `json:"stabilized,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// RiskSignalResult extends SignalResult with sized entry/exit levels.
type RiskSignalResult struct {
	SignalResult

	EntryPrice      float64 `json:"entry_price"`
	TakeProfit      float64 `json:"take_profit"`
	StopLoss        float64 `json:"stop_loss"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	WasFiltered     bool    `json:"was_filtered"`
	FilterReason    string  `json:"filter_reason,omitempty"`
}

// PredictionRecord is one emitted prediction kept for rolling statistics.
// Records live in a bounded FIFO buffer and are never persisted per-row.
type PredictionRecord struct {
	Symbol           string    `json:"symbol"`
	Signal           Signal    `json:"signal"`
	Confidence       float64   `json:"confidence"`
	ProfitLikelihood float64   `json:"profit_likelihood"`
	Timestamp        time.Time `json:"timestamp"`
	WasFiltered      bool      `json:"was_filtered"`
	FilterReason     string    `json:"filter_reason,omitempty"`
}

// SignalHistoryEntry is one stabilized output retained per symbol.
type SignalHistoryEntry struct {
	Signal           Signal    `json:"signal"`
	Confidence       float64   `json:"confidence"`
	ProfitLikelihood float64   `json:"profit_likelihood"`
	Timestamp        time.Time `json:"timestamp"`
}
