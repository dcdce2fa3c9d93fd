// Package mathx provides small numeric guards shared by the calibration
// stages. Every stage output passes through Clamp/Sanitize so NaN or
// Inf can never escape to callers.
package mathx

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sanitize replaces NaN/Inf with fallback.
func Sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// EMA advances an exponential moving average by one observation.
func EMA(prev, next, alpha float64) float64 {
	return prev + alpha*(next-prev)
}

// Finite reports whether v is a usable number.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
