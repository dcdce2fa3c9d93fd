package learner

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/logger"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"

	"golang.org/x/sync/errgroup"
)

// Probability thresholds splitting the [0,1] output into directions.
const (
	shortThreshold = 0.4
	longThreshold  = 0.6
)

// BasePrediction is one weak learner's output.
type BasePrediction struct {
	Learner     string
	Signal      types.Signal
	Probability float64
	Confidence  float64
}

// modelSet holds the three weak learners trained for one scope (a
// single symbol, or the general fallback).
type modelSet struct {
	forest     *Forest
	logit      *Logistic
	perceptron *Perceptron
	samples    int
	trainedAt  time.Time
}

// TrainReport summarizes one ensemble training pass.
type TrainReport struct {
	SymbolsTrained int
	SymbolsSkipped int
	GeneralTrained bool
	Failures       map[string]error
}

// BaseEnsemble manages per-symbol weak-learner sets plus a general
// fallback model trained on all symbols pooled together.
type BaseEnsemble struct {
	cfg config.LearnerConfig

	mu        sync.RWMutex
	perSymbol map[string]*modelSet
	general   *modelSet

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewBaseEnsemble(cfg config.LearnerConfig, rng *rand.Rand) *BaseEnsemble {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &BaseEnsemble{
		cfg:       cfg,
		perSymbol: make(map[string]*modelSet),
		rng:       rng,
	}
}

func (e *BaseEnsemble) newModelSet() *modelSet {
	return &modelSet{
		forest:     NewForest(e.cfg.TreeCount, e.cfg.TreeDepth),
		logit:      NewLogistic(e.cfg.LogisticEpochs, e.cfg.LogisticRate),
		perceptron: NewPerceptron(e.cfg.HiddenSize, e.cfg.PerceptronEpochs, e.cfg.PerceptronRate),
	}
}

// seededRNG hands each training goroutine its own deterministic source
// so concurrent fits stay reproducible under a seeded parent.
func (e *BaseEnsemble) seededRNG() *rand.Rand {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return rand.New(rand.NewSource(e.rng.Int63()))
}

// Train fits per-symbol model sets concurrently. A symbol below the
// minimum sample count is skipped; a symbol whose fit panics or errors
// is recorded in the report without aborting the others.
func (e *BaseEnsemble) Train(ctx context.Context, bySymbol map[string][]Sample) TrainReport {
	report := TrainReport{Failures: make(map[string]error)}

	var pooled []Sample
	for _, samples := range bySymbol {
		pooled = append(pooled, samples...)
	}

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for symbol, samples := range bySymbol {
		if len(samples) < e.cfg.MinSymbolSamples {
			report.SymbolsSkipped++
			continue
		}
		symbol, samples := symbol, samples
		rng := e.seededRNG()
		g.Go(func() error {
			set, err := e.fitSet(samples, rng)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures[symbol] = err
				logger.Warnf("ensemble: training %s failed: %v", symbol, err)
				return nil // isolate per-symbol failures
			}
			e.mu.Lock()
			e.perSymbol[symbol] = set
			e.mu.Unlock()
			report.SymbolsTrained++
			return nil
		})
	}
	_ = g.Wait()

	if len(pooled) >= e.cfg.MinGeneralSamples {
		set, err := e.fitSet(pooled, e.seededRNG())
		if err != nil {
			logger.Warnf("ensemble: general model training failed: %v", err)
		} else {
			e.mu.Lock()
			e.general = set
			e.mu.Unlock()
			report.GeneralTrained = true
		}
	}
	return report
}

func (e *BaseEnsemble) fitSet(samples []Sample, rng *rand.Rand) (set *modelSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			set, err = nil, fmt.Errorf("learner panic: %v", r)
		}
	}()
	rows := make([]treeSample, len(samples))
	for i, s := range samples {
		rows[i] = treeSample{features: s.Features, target: mathx.Clamp(s.Target, 0, 1)}
	}
	set = e.newModelSet()
	set.forest.Fit(rows, rng)
	set.logit.Fit(rows, rng)
	set.perceptron.Fit(rows, rng)
	set.samples = len(rows)
	set.trainedAt = time.Now().UTC()
	return set, nil
}

// Predict runs the symbol's model set, falling back to the general
// model when the symbol has none. Untrained scopes yield neutral
// predictions rather than an error.
func (e *BaseEnsemble) Predict(symbol string, features []float64) []BasePrediction {
	e.mu.RLock()
	set := e.perSymbol[symbol]
	if set == nil {
		set = e.general
	}
	e.mu.RUnlock()

	if set == nil {
		return neutralPredictions()
	}

	forestProb := set.forest.PredictProb(features)
	// Tight tree agreement means high confidence.
	forestConf := mathx.Clamp(1-2*set.forest.Spread(features), 0, 1)

	logitProb := set.logit.PredictProb(features)
	percProb := set.perceptron.PredictProb(features)

	return []BasePrediction{
		{Learner: "forest", Signal: DirectionFromProb(forestProb), Probability: forestProb, Confidence: forestConf},
		{Learner: "logistic", Signal: DirectionFromProb(logitProb), Probability: logitProb, Confidence: probMargin(logitProb)},
		{Learner: "perceptron", Signal: DirectionFromProb(percProb), Probability: percProb, Confidence: probMargin(percProb)},
	}
}

// HasModel reports whether any trained scope covers symbol.
func (e *BaseEnsemble) HasModel(symbol string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.perSymbol[symbol] != nil || e.general != nil
}

// FeatureGains merges per-feature split gains across trained scopes.
func (e *BaseEnsemble) FeatureGains() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var merged []float64
	add := func(set *modelSet) {
		if set == nil || set.forest == nil {
			return
		}
		gains := set.forest.Gains()
		if merged == nil {
			merged = make([]float64, len(gains))
		}
		for i, g := range gains {
			if i < len(merged) {
				merged[i] += g
			}
		}
	}
	for _, set := range e.perSymbol {
		add(set)
	}
	add(e.general)
	return merged
}

func neutralPredictions() []BasePrediction {
	return []BasePrediction{
		{Learner: "forest", Signal: types.SignalWait, Probability: 0.5},
		{Learner: "logistic", Signal: types.SignalWait, Probability: 0.5},
		{Learner: "perceptron", Signal: types.SignalWait, Probability: 0.5},
	}
}

// DirectionFromProb maps a probability to a direction through the
// 0.4/0.6 thresholds.
func DirectionFromProb(p float64) types.Signal {
	switch {
	case p < shortThreshold:
		return types.SignalShort
	case p > longThreshold:
		return types.SignalLong
	default:
		return types.SignalWait
	}
}

func probMargin(p float64) float64 {
	return mathx.Clamp(2*math.Abs(p-0.5), 0, 1)
}
