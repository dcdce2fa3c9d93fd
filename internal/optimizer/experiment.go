package optimizer

import (
	"time"

	"signalcore/internal/logger"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"

	"github.com/google/uuid"
)

// Global weight bound, wider than the optimizer's working bound so
// experiments can explore further.
const (
	GlobalWeightFloor = 0.1
	GlobalWeightCeil  = 10.0
)

// Experiment records one exploratory perturbation run.
type Experiment struct {
	ID             string    `json:"id"`
	At             time.Time `json:"at"`
	Accepted       bool      `json:"accepted"`
	SimProfit      float64   `json:"sim_profit"`
	SimConfidence  float64   `json:"sim_confidence"`
	BaseProfit     float64   `json:"base_profit"`
	BaseConfidence float64   `json:"base_confidence"`
}

// EvaluationSlice returns the most recent evaluation-window outcomes
// from a chronologically ordered batch.
func (o *Optimizer) EvaluationSlice(outcomes []types.TradeOutcome) []types.TradeOutcome {
	if len(outcomes) > o.cfg.EvaluationWindow {
		return outcomes[len(outcomes)-o.cfg.EvaluationWindow:]
	}
	return outcomes
}

// MaybeExperiment rolls the configured probability; when it hits, it
// perturbs every weight by a uniform factor in [1-p, 1+p], scores the
// candidate against the supplied vote tallies, and blends a small
// fraction of the candidate into the live weights only if both
// simulated profit and simulated confidence meet or exceed the
// baseline. Tallies are precomputed by the caller (see TallyVotes and
// EvaluationSlice), so no snapshot lookups happen here; callers may
// hold their own locks around the weight map. The returned experiment
// is nil when the roll misses.
func (o *Optimizer) MaybeExperiment(weights map[string]float64, tallies map[string]VoteTally) *Experiment {
	o.rngMu.Lock()
	roll := o.rng.Float64()
	o.rngMu.Unlock()
	if roll >= o.cfg.ExperimentProbability {
		return nil
	}
	return o.RunExperiment(weights, tallies)
}

// RunExperiment always runs one perturbation trial. Exposed separately
// so forced training cycles and tests can drive it deterministically.
func (o *Optimizer) RunExperiment(weights map[string]float64, tallies map[string]VoteTally) *Experiment {
	candidate := make(map[string]float64, len(weights))
	p := o.cfg.PerturbationScale
	o.rngMu.Lock()
	for ind, w := range weights {
		factor := 1 - p + 2*p*o.rng.Float64()
		candidate[ind] = mathx.Clamp(w*factor, GlobalWeightFloor, GlobalWeightCeil)
	}
	o.rngMu.Unlock()

	baseProfit, baseConf := simulate(weights, tallies)
	simProfit, simConf := simulate(candidate, tallies)

	exp := &Experiment{
		ID:             uuid.NewString(),
		At:             time.Now().UTC(),
		SimProfit:      simProfit,
		SimConfidence:  simConf,
		BaseProfit:     baseProfit,
		BaseConfidence: baseConf,
	}
	if simProfit >= baseProfit && simConf >= baseConf {
		blend := o.cfg.BlendFraction
		for ind, w := range weights {
			weights[ind] = mathx.Clamp(w+(candidate[ind]-w)*blend, GlobalWeightFloor, GlobalWeightCeil)
		}
		exp.Accepted = true
		logger.Infof("optimizer: experiment %s accepted (profit %.3f>=%.3f conf %.1f>=%.1f)",
			exp.ID, simProfit, baseProfit, simConf, baseConf)
	} else {
		logger.Debugf("optimizer: experiment %s rejected", exp.ID)
	}
	return exp
}

// simulate scores a weight vector against the per-indicator success
// ratios observed in the evaluation window: weight mass concentrated on
// indicators with a positive edge raises both scores.
func simulate(weights map[string]float64, tallies map[string]VoteTally) (profit, confidence float64) {
	totalW := 0.0
	for ind := range tallies {
		if w, ok := weights[ind]; ok {
			totalW += w
		}
	}
	if totalW <= 0 {
		return 0, 50
	}
	for ind, tally := range tallies {
		w, ok := weights[ind]
		if !ok {
			continue
		}
		share := w / totalW
		ratio := tally.SuccessRatio()
		profit += share * (2*ratio - 1)
		confidence += share * ratio * 100
	}
	return mathx.Sanitize(profit, 0), mathx.Sanitize(confidence, 50)
}
