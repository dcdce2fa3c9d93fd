// Package store defines the persistence contracts the engine consumes:
// the feature-weight store, the engine-state snapshot store, the
// read-only trade-outcome feed, and the optional forecast-accuracy
// provider.
package store

import (
	"context"

	"signalcore/internal/types"
)

// FeatureProvider supplies the engineered feature vector for a symbol.
type FeatureProvider interface {
	GetFeatures(ctx context.Context, symbol string) (types.FeatureVector, error)
}

// TradeOutcomeRepository reads completed trades. The engine never
// writes outcomes; they are produced by the execution side.
type TradeOutcomeRepository interface {
	GetRecentCompleted(ctx context.Context, limit, sinceDays int) ([]types.TradeOutcome, error)
}

// FeatureWeightStore persists the per-indicator scalar weights.
type FeatureWeightStore interface {
	Load(ctx context.Context) (map[string]float64, error)
	Save(ctx context.Context, weights map[string]float64) error
}

// EngineStateStore persists the crash-safe engine snapshot. Load
// returns (nil, nil) when no snapshot exists; that is not an error.
type EngineStateStore interface {
	Load(ctx context.Context) (*EngineState, error)
	Save(ctx context.Context, state *EngineState) error
}

// ForecastAccuracyProvider returns per-minute forecast accuracies for
// horizons 1..20. Optional; the engine works without one.
type ForecastAccuracyProvider interface {
	GetHorizonAccuracies(ctx context.Context, symbol string) ([]float64, error)
}
