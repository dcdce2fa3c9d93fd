package learner

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"signalcore/internal/config"
	"signalcore/internal/types"
)

func newTestEnsemble() *BaseEnsemble {
	return NewBaseEnsemble(config.Default().Learner, rand.New(rand.NewSource(42)))
}

// separable builds n samples where the first feature alone decides the
// target: above 0.5 means price rose.
func separable(symbol string, n int, rng *rand.Rand) []Sample {
	out := make([]Sample, n)
	for i := range out {
		x := rng.Float64()
		target := 0.0
		if x > 0.5 {
			target = 1.0
		}
		out[i] = Sample{
			Symbol:   symbol,
			Features: []float64{x, rng.Float64() * 0.1, 0.5, 0.5, 0.2},
			Target:   target,
		}
	}
	return out
}

func TestPredictNeutralBeforeTraining(t *testing.T) {
	e := newTestEnsemble()
	preds := e.Predict("BTCUSDT", []float64{0.5, 0.5, 0.5, 0.5, 0.5})
	assert.Len(t, preds, 3)
	for _, p := range preds {
		assert.Equal(t, types.SignalWait, p.Signal)
		assert.InDelta(t, 0.5, p.Probability, 1e-9)
	}
	assert.False(t, e.HasModel("BTCUSDT"))
}

func TestTrainLearnsSeparableData(t *testing.T) {
	e := newTestEnsemble()
	rng := rand.New(rand.NewSource(9))

	report := e.Train(context.Background(), map[string][]Sample{
		"BTCUSDT": separable("BTCUSDT", 60, rng),
	})
	assert.Equal(t, 1, report.SymbolsTrained)
	assert.True(t, report.GeneralTrained)
	assert.Empty(t, report.Failures)
	assert.True(t, e.HasModel("BTCUSDT"))

	up := e.Predict("BTCUSDT", []float64{0.95, 0.05, 0.5, 0.5, 0.2})
	down := e.Predict("BTCUSDT", []float64{0.05, 0.05, 0.5, 0.5, 0.2})
	for i := range up {
		assert.Greater(t, up[i].Probability, down[i].Probability, up[i].Learner)
		assert.GreaterOrEqual(t, up[i].Probability, 0.0)
		assert.LessOrEqual(t, up[i].Probability, 1.0)
	}
}

func TestTrainSkipsThinSymbols(t *testing.T) {
	e := newTestEnsemble()
	rng := rand.New(rand.NewSource(3))

	report := e.Train(context.Background(), map[string][]Sample{
		"THIN": separable("THIN", 2, rng), // below the 3-sample minimum
		"FAT":  separable("FAT", 30, rng),
	})
	assert.Equal(t, 1, report.SymbolsSkipped)
	assert.Equal(t, 1, report.SymbolsTrained)
}

func TestPredictFallsBackToGeneralModel(t *testing.T) {
	e := newTestEnsemble()
	rng := rand.New(rand.NewSource(5))

	e.Train(context.Background(), map[string][]Sample{
		"BTCUSDT": separable("BTCUSDT", 40, rng),
	})

	// Unseen symbol rides the pooled general model.
	preds := e.Predict("DOGEUSDT", []float64{0.95, 0.05, 0.5, 0.5, 0.2})
	assert.Len(t, preds, 3)
	for _, p := range preds {
		assert.NotEqual(t, 0.5, p.Probability)
	}
}

func TestDirectionFromProb(t *testing.T) {
	assert.Equal(t, types.SignalShort, DirectionFromProb(0.39))
	assert.Equal(t, types.SignalWait, DirectionFromProb(0.4))
	assert.Equal(t, types.SignalWait, DirectionFromProb(0.5))
	assert.Equal(t, types.SignalWait, DirectionFromProb(0.6))
	assert.Equal(t, types.SignalLong, DirectionFromProb(0.61))
}

func TestMetaLearnerColdStartFollowsConsensus(t *testing.T) {
	m := NewMetaLearner(config.Default().Learner, rand.New(rand.NewSource(11)))
	assert.False(t, m.Trained())

	longPreds := []BasePrediction{
		{Signal: types.SignalLong}, {Signal: types.SignalLong}, {Signal: types.SignalLong},
	}
	p := m.PredictProb(nil, longPreds)
	assert.Greater(t, p, 0.5)

	shortPreds := []BasePrediction{
		{Signal: types.SignalShort}, {Signal: types.SignalShort}, {Signal: types.SignalShort},
	}
	p = m.PredictProb(nil, shortPreds)
	assert.Less(t, p, 0.5)
}

func TestMetaLearnerFitsResiduals(t *testing.T) {
	m := NewMetaLearner(config.Default().Learner, rand.New(rand.NewSource(13)))
	rng := rand.New(rand.NewSource(17))

	inputs := make([][]float64, 0, 80)
	targets := make([]float64, 0, 80)
	for i := 0; i < 80; i++ {
		x := rng.Float64()
		row := make([]float64, len(MetaFeatureNames))
		row[1] = x // forest probability carries all the signal
		inputs = append(inputs, row)
		if x > 0.5 {
			targets = append(targets, 1)
		} else {
			targets = append(targets, 0)
		}
	}
	m.Fit(inputs, targets)
	assert.True(t, m.Trained())

	up := make([]float64, len(MetaFeatureNames))
	up[1] = 0.9
	down := make([]float64, len(MetaFeatureNames))
	down[1] = 0.1
	assert.Greater(t, m.PredictProb(up, nil), m.PredictProb(down, nil))

	imp := m.Importance()
	assert.Greater(t, imp["forest_prob"], 0.5, "split gain concentrates on the informative feature")
}

func TestMetaDirectionNeutralBand(t *testing.T) {
	m := NewMetaLearner(config.Default().Learner, nil)
	assert.Equal(t, types.SignalWait, m.Direction(0.5))
	assert.Equal(t, types.SignalWait, m.Direction(0.503))
	assert.Equal(t, types.SignalLong, m.Direction(0.51))
	assert.Equal(t, types.SignalShort, m.Direction(0.49))
}
