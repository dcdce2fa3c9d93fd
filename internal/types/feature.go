package types

import "time"

// Canonical indicator keys used across the engine. Providers may supply
// additional keys; weighting and importance tracking handle any name.
const (
	IndicatorRSI        = "rsi"
	IndicatorMACD       = "macd"
	IndicatorVolatility = "volatility"
	IndicatorStochastic = "stochastic"
	IndicatorVolume     = "volume"
	IndicatorEMA        = "ema"
	IndicatorBollinger  = "bollinger"
)

// FeatureVector carries the engineered indicator values plus the current
// bar for one symbol. Indicator computation happens upstream; the engine
// consumes the vector as-is.
type FeatureVector struct {
	Symbol     string             `json:"symbol"`
	Open       float64            `json:"open"`
	High       float64            `json:"high"`
	Low        float64            `json:"low"`
	Close      float64            `json:"close"`
	Volume     float64            `json:"volume"`
	Indicators map[string]float64 `json:"indicators"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Indicator returns the named indicator value and whether it is present.
func (f FeatureVector) Indicator(name string) (float64, bool) {
	if f.Indicators == nil {
		return 0, false
	}
	v, ok := f.Indicators[name]
	return v, ok
}

// IndicatorOr returns the named indicator value, or def when missing.
func (f FeatureVector) IndicatorOr(name string, def float64) float64 {
	if v, ok := f.Indicator(name); ok {
		return v
	}
	return def
}

// FeatureWeight is one persisted per-indicator scalar weight.
type FeatureWeight struct {
	Indicator   string    `json:"indicator"`
	Weight      float64   `json:"weight"`
	LastUpdated time.Time `json:"last_updated"`
}
