package learner

import (
	"math"
	"math/rand"
)

// Logistic is a plain logistic-regression model trained by batch
// gradient descent over a fixed epoch budget.
type Logistic struct {
	weights []float64
	bias    float64
	epochs  int
	rate    float64
	trained bool
}

func NewLogistic(epochs int, rate float64) *Logistic {
	if epochs <= 0 {
		epochs = 100
	}
	if rate <= 0 {
		rate = 0.1
	}
	return &Logistic{epochs: epochs, rate: rate}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Fit runs gradient descent on the cross-entropy loss. Targets are
// expected in [0,1].
func (l *Logistic) Fit(samples []treeSample, rng *rand.Rand) {
	if len(samples) == 0 {
		return
	}
	n := len(samples[0].features)
	l.weights = make([]float64, n)
	for i := range l.weights {
		l.weights[i] = (rng.Float64() - 0.5) * 0.1
	}
	l.bias = 0

	for epoch := 0; epoch < l.epochs; epoch++ {
		gradW := make([]float64, n)
		gradB := 0.0
		for _, s := range samples {
			p := l.PredictProb(s.features)
			err := p - s.target
			for i, x := range s.features {
				if i < n {
					gradW[i] += err * x
				}
			}
			gradB += err
		}
		scale := l.rate / float64(len(samples))
		for i := range l.weights {
			l.weights[i] -= scale * gradW[i]
		}
		l.bias -= scale * gradB
	}
	l.trained = true
}

// PredictProb returns the sigmoid output in [0,1].
func (l *Logistic) PredictProb(features []float64) float64 {
	if len(l.weights) == 0 {
		return 0.5
	}
	z := l.bias
	for i, w := range l.weights {
		if i < len(features) {
			z += w * features[i]
		}
	}
	return sigmoid(z)
}

// Trained reports whether Fit has completed at least once.
func (l *Logistic) Trained() bool {
	return l.trained
}
