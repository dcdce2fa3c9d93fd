package learner

import (
	"math"
	"math/rand"
	"sort"
)

// regressionTree is a shallow CART-style tree fit on a continuous
// target. Splits are chosen by variance reduction; per-feature gain is
// accumulated into the importance slice passed to fit.
type regressionTree struct {
	feature   int
	threshold float64
	value     float64
	left      *regressionTree
	right     *regressionTree
	leaf      bool
}

type treeSample struct {
	features []float64
	target   float64
}

func fitTree(samples []treeSample, depth, maxDepth, minLeaf int, gains []float64) *regressionTree {
	if len(samples) == 0 {
		return &regressionTree{leaf: true, value: 0.5}
	}
	mean := targetMean(samples)
	if depth >= maxDepth || len(samples) < 2*minLeaf {
		return &regressionTree{leaf: true, value: mean}
	}

	baseVar := targetVariance(samples, mean)
	if baseVar < 1e-12 {
		return &regressionTree{leaf: true, value: mean}
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	nFeatures := len(samples[0].features)
	for f := 0; f < nFeatures; f++ {
		thresholds := candidateThresholds(samples, f)
		for _, th := range thresholds {
			gain := splitGain(samples, f, th, baseVar, minLeaf)
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, th, gain
			}
		}
	}
	if bestFeature < 0 {
		return &regressionTree{leaf: true, value: mean}
	}
	if gains != nil && bestFeature < len(gains) {
		gains[bestFeature] += bestGain * float64(len(samples))
	}

	var left, right []treeSample
	for _, s := range samples {
		if s.features[bestFeature] <= bestThreshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return &regressionTree{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      fitTree(left, depth+1, maxDepth, minLeaf, gains),
		right:     fitTree(right, depth+1, maxDepth, minLeaf, gains),
	}
}

func (t *regressionTree) predict(features []float64) float64 {
	if t == nil {
		return 0.5
	}
	if t.leaf {
		return t.value
	}
	if t.feature >= len(features) || features[t.feature] <= t.threshold {
		return t.left.predict(features)
	}
	return t.right.predict(features)
}

func targetMean(samples []treeSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.target
	}
	return sum / float64(len(samples))
}

func targetVariance(samples []treeSample, mean float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		d := s.target - mean
		sum += d * d
	}
	return sum / float64(len(samples))
}

// candidateThresholds returns midpoints between adjacent distinct
// feature values, capped to keep shallow fits cheap.
func candidateThresholds(samples []treeSample, feature int) []float64 {
	const maxCandidates = 8
	seen := make(map[float64]bool, len(samples))
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		if feature >= len(s.features) {
			continue
		}
		v := s.features[feature]
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return nil
	}
	sort.Float64s(values)
	out := make([]float64, 0, len(values)-1)
	step := 1
	if len(values)-1 > maxCandidates {
		step = (len(values) - 1) / maxCandidates
	}
	for i := 0; i+1 < len(values); i += step {
		out = append(out, (values[i]+values[i+1])/2)
	}
	return out
}

func splitGain(samples []treeSample, feature int, threshold, baseVar float64, minLeaf int) float64 {
	var left, right []treeSample
	for _, s := range samples {
		if s.features[feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) < minLeaf || len(right) < minLeaf {
		return 0
	}
	n := float64(len(samples))
	lVar := targetVariance(left, targetMean(left))
	rVar := targetVariance(right, targetMean(right))
	weighted := (float64(len(left))*lVar + float64(len(right))*rVar) / n
	return baseVar - weighted
}

// bootstrapResample draws len(samples) rows with replacement.
func bootstrapResample(samples []treeSample, rng *rand.Rand) []treeSample {
	out := make([]treeSample, len(samples))
	for i := range out {
		out[i] = samples[rng.Intn(len(samples))]
	}
	return out
}

// Forest is a bagged ensemble of shallow regression trees.
type Forest struct {
	trees   []*regressionTree
	gains   []float64
	depth   int
	count   int
	minLeaf int
}

func NewForest(count, depth int) *Forest {
	if count <= 0 {
		count = 10
	}
	if depth <= 0 {
		depth = 3
	}
	return &Forest{count: count, depth: depth, minLeaf: 2}
}

// Fit trains count trees on bootstrap resamples of the sample set.
func (f *Forest) Fit(samples []treeSample, rng *rand.Rand) {
	if len(samples) == 0 {
		return
	}
	nFeatures := len(samples[0].features)
	f.gains = make([]float64, nFeatures)
	f.trees = make([]*regressionTree, 0, f.count)
	for i := 0; i < f.count; i++ {
		boot := bootstrapResample(samples, rng)
		f.trees = append(f.trees, fitTree(boot, 0, f.depth, f.minLeaf, f.gains))
	}
}

// PredictProb averages tree outputs, clamped to [0,1].
func (f *Forest) PredictProb(features []float64) float64 {
	if len(f.trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(features)
	}
	p := sum / float64(len(f.trees))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Spread measures disagreement across trees as a standard deviation,
// used to derive the forest's confidence.
func (f *Forest) Spread(features []float64) float64 {
	if len(f.trees) < 2 {
		return 0
	}
	preds := make([]float64, len(f.trees))
	sum := 0.0
	for i, t := range f.trees {
		preds[i] = t.predict(features)
		sum += preds[i]
	}
	mean := sum / float64(len(preds))
	varSum := 0.0
	for _, p := range preds {
		d := p - mean
		varSum += d * d
	}
	return math.Sqrt(varSum / float64(len(preds)))
}

// Gains returns the accumulated split gains per feature index.
func (f *Forest) Gains() []float64 {
	out := make([]float64, len(f.gains))
	copy(out, f.gains)
	return out
}

// Trained reports whether the forest holds fitted trees.
func (f *Forest) Trained() bool {
	return len(f.trees) > 0
}
