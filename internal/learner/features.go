package learner

import (
	"math"

	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"
)

// DefaultIndicators is the canonical ordering of the engineered vector.
// Providers may ship more indicators; anything outside this list is
// appended in sorted order by the vectorizer at construction time.
var DefaultIndicators = []string{
	types.IndicatorRSI,
	types.IndicatorMACD,
	types.IndicatorVolatility,
	types.IndicatorStochastic,
	types.IndicatorVolume,
}

// Sample is one training row: engineered features plus a continuous
// target in [0,1] derived from the trade outcome (1 = price rose).
type Sample struct {
	Symbol   string
	Features []float64
	Target   float64
}

// Vectorizer turns a raw FeatureVector into the fixed-order engineered
// vector the learners consume: normalized indicator values with the
// persisted per-indicator weights applied.
type Vectorizer struct {
	keys []string
}

func NewVectorizer(keys ...string) *Vectorizer {
	if len(keys) == 0 {
		keys = DefaultIndicators
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return &Vectorizer{keys: out}
}

// Keys returns the indicator ordering of the vector.
func (v *Vectorizer) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Transform builds the engineered vector. Weights scale each normalized
// indicator relative to the mean weight so that raising one indicator's
// weight emphasizes it without inflating the whole vector.
func (v *Vectorizer) Transform(f types.FeatureVector, weights map[string]float64) []float64 {
	meanW := 1.0
	if len(weights) > 0 {
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if m := sum / float64(len(weights)); m > 0 {
			meanW = m
		}
	}
	out := make([]float64, len(v.keys))
	for i, key := range v.keys {
		raw := f.IndicatorOr(key, defaultIndicatorValue(key))
		norm := NormalizeIndicator(key, raw)
		w := 1.0
		if weights != nil {
			if ww, ok := weights[key]; ok && ww > 0 {
				w = ww / meanW
			}
		}
		out[i] = mathx.Sanitize(norm*w, 0)
	}
	return out
}

// NormalizeIndicator maps a raw indicator value into a bounded range
// suitable for the learners.
func NormalizeIndicator(key string, v float64) float64 {
	switch key {
	case types.IndicatorRSI, types.IndicatorStochastic:
		return mathx.Clamp(v/100, 0, 1)
	case types.IndicatorMACD:
		return math.Tanh(v)
	case types.IndicatorVolatility:
		return mathx.Clamp(v/10, 0, 1)
	case types.IndicatorVolume:
		if v <= 0 {
			return 0
		}
		return mathx.Clamp(math.Log10(1+v)/10, 0, 1)
	default:
		return math.Tanh(v)
	}
}

func defaultIndicatorValue(key string) float64 {
	switch key {
	case types.IndicatorRSI, types.IndicatorStochastic:
		return 50
	default:
		return 0
	}
}

// MetaFeatureNames lists the stacking input layout in order: per base
// learner [direction, probability, confidence], then the normalized
// technicals, then the agreement statistics.
var MetaFeatureNames = []string{
	"forest_dir", "forest_prob", "forest_conf",
	"logistic_dir", "logistic_prob", "logistic_conf",
	"perceptron_dir", "perceptron_prob", "perceptron_conf",
	"rsi", "macd", "volatility", "stochastic", "volume",
	"long_votes", "short_votes", "mean_confidence",
}

// BuildMetaInput assembles the stacking vector from the base-learner
// outputs and the raw feature vector.
func BuildMetaInput(preds []BasePrediction, f types.FeatureVector) []float64 {
	out := make([]float64, 0, len(MetaFeatureNames))
	longVotes, shortVotes, confSum := 0.0, 0.0, 0.0
	for _, p := range preds {
		out = append(out, p.Signal.Encoded(), p.Probability, p.Confidence)
		switch p.Signal {
		case types.SignalLong:
			longVotes++
		case types.SignalShort:
			shortVotes++
		}
		confSum += p.Confidence
	}
	// Pad when fewer than three base outputs are available.
	for len(out) < 9 {
		out = append(out, 0, 0.5, 0)
	}

	out = append(out,
		NormalizeIndicator(types.IndicatorRSI, f.IndicatorOr(types.IndicatorRSI, 50)),
		NormalizeIndicator(types.IndicatorMACD, f.IndicatorOr(types.IndicatorMACD, 0)),
		NormalizeIndicator(types.IndicatorVolatility, f.IndicatorOr(types.IndicatorVolatility, 0)),
		NormalizeIndicator(types.IndicatorStochastic, f.IndicatorOr(types.IndicatorStochastic, 50)),
		NormalizeIndicator(types.IndicatorVolume, f.IndicatorOr(types.IndicatorVolume, f.Volume)),
	)

	n := float64(len(preds))
	if n == 0 {
		n = 1
	}
	out = append(out, longVotes/n, shortVotes/n, confSum/n)
	for i, v := range out {
		out[i] = mathx.Sanitize(v, 0)
	}
	return out
}
