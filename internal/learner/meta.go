package learner

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/logger"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"
)

// MetaLearner is the stacking layer: a small gradient-boosted ensemble
// of shallow regression trees fit on base-learner outputs, normalized
// technicals, and agreement statistics.
type MetaLearner struct {
	cfg config.LearnerConfig

	mu         sync.RWMutex
	trees      []*regressionTree
	base       float64
	importance map[string]float64
	trainedAt  time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewMetaLearner(cfg config.LearnerConfig, rng *rand.Rand) *MetaLearner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MetaLearner{cfg: cfg, base: 0.5, rng: rng}
}

// Fit runs boosting rounds against the continuous outcome targets.
// Each round fits a shallow tree on the current residuals and adds its
// prediction at the configured learning rate. Boosting early-stops when
// the mean absolute residual drops below the epsilon.
func (m *MetaLearner) Fit(inputs [][]float64, targets []float64) {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return
	}
	n := len(inputs)
	nFeatures := len(inputs[0])
	gains := make([]float64, nFeatures)

	preds := make([]float64, n)
	for i := range preds {
		preds[i] = m.base
	}

	trees := make([]*regressionTree, 0, m.cfg.BoostRounds)
	rows := make([]treeSample, n)
	rounds := 0
	for round := 0; round < m.cfg.BoostRounds; round++ {
		residualSum := 0.0
		for i := range rows {
			r := targets[i] - preds[i]
			rows[i] = treeSample{features: inputs[i], target: r}
			residualSum += math.Abs(r)
		}
		if residualSum/float64(n) < m.cfg.BoostEpsilon {
			break
		}
		tree := fitTree(rows, 0, 2, 2, gains)
		trees = append(trees, tree)
		for i := range preds {
			preds[i] += m.cfg.BoostRate * tree.predict(inputs[i])
		}
		rounds = round + 1
	}

	importance := normalizeGains(gains)

	m.mu.Lock()
	m.trees = trees
	m.importance = importance
	m.trainedAt = time.Now().UTC()
	m.mu.Unlock()
	logger.Debugf("meta: fitted %d boosting rounds on %d samples", rounds, n)
}

func normalizeGains(gains []float64) map[string]float64 {
	total := 0.0
	for _, g := range gains {
		total += g
	}
	out := make(map[string]float64, len(gains))
	for i, g := range gains {
		name := "feature"
		if i < len(MetaFeatureNames) {
			name = MetaFeatureNames[i]
		}
		if total > 0 {
			out[name] = g / total
		} else {
			out[name] = 0
		}
	}
	return out
}

// PredictProb returns the boosted output clamped to [0,1]. With no
// trees yet (cold start) it falls back to a heuristic built from the
// base-learner directional consensus plus bounded jitter, so the engine
// does not emit WAIT forever before the first training cycle.
func (m *MetaLearner) PredictProb(input []float64, basePreds []BasePrediction) float64 {
	m.mu.RLock()
	trees := m.trees
	base := m.base
	m.mu.RUnlock()

	if len(trees) == 0 {
		return m.coldStartProb(basePreds)
	}
	p := base
	for _, t := range trees {
		p += m.cfg.BoostRate * t.predict(input)
	}
	return mathx.Clamp(mathx.Sanitize(p, 0.5), 0, 1)
}

func (m *MetaLearner) coldStartProb(basePreds []BasePrediction) float64 {
	dirSum := 0.0
	for _, p := range basePreds {
		dirSum += p.Signal.Encoded()
	}
	avg := 0.0
	if len(basePreds) > 0 {
		avg = dirSum / float64(len(basePreds))
	}
	m.rngMu.Lock()
	jitter := (m.rng.Float64() - 0.5) * 0.04
	m.rngMu.Unlock()
	return mathx.Clamp(0.5+0.1*avg+jitter, 0, 1)
}

// Direction maps the meta output through the narrow neutral band
// around 0.5. The band is intentionally tight so most predictions stay
// actionable.
func (m *MetaLearner) Direction(p float64) types.Signal {
	band := m.cfg.NeutralBand
	switch {
	case p < 0.5-band:
		return types.SignalShort
	case p > 0.5+band:
		return types.SignalLong
	default:
		return types.SignalWait
	}
}

// Trained reports whether any boosting rounds have been fit.
func (m *MetaLearner) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trees) > 0
}

// Importance returns the normalized split-gain share per meta feature.
func (m *MetaLearner) Importance() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.importance))
	for k, v := range m.importance {
		out[k] = v
	}
	return out
}
