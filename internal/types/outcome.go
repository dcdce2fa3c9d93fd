package types

import "time"

// Outcome classifies how a completed trade resolved.
type Outcome string

const (
	OutcomeTPHit          Outcome = "TP_HIT"
	OutcomeSLHit          Outcome = "SL_HIT"
	OutcomePulloutProfit  Outcome = "PULLOUT_PROFIT"
	OutcomeNoProfit       Outcome = "NO_PROFIT"
	OutcomeExpired        Outcome = "EXPIRED"
)

// Valid reports whether o is a known terminal outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeTPHit, OutcomeSLHit, OutcomePulloutProfit, OutcomeNoProfit, OutcomeExpired:
		return true
	}
	return false
}

// Profitable reports whether the outcome counts as a success for
// weight-learning purposes. EXPIRED is neither success nor failure.
func (o Outcome) Profitable() bool {
	return o == OutcomeTPHit || o == OutcomePulloutProfit
}

// TradeOutcome is a completed trade read from the outcome feed. The
// engine never writes these; they are produced by the execution side.
type TradeOutcome struct {
	Symbol                string    `json:"symbol"`
	SignalType            Signal    `json:"signal_type"`
	EntryPrice            float64   `json:"entry_price"`
	TakeProfit            float64   `json:"take_profit"`
	StopLoss              float64   `json:"stop_loss"`
	ActualOutcome         Outcome   `json:"actual_outcome"`
	ProfitLoss            float64   `json:"profit_loss"`
	MaxFavorableExcursion float64   `json:"max_favorable_excursion"`
	MaxDrawdown           float64   `json:"max_drawdown"`
	Confidence            float64   `json:"confidence"`
	ProfitLikelihood      float64   `json:"profit_likelihood"`
	CreatedAt             time.Time `json:"created_at"`
}
