package learner

import "math/rand"

// Perceptron is a two-layer feed-forward network: ReLU hidden layer,
// sigmoid output, trained by a simplified backprop update.
type Perceptron struct {
	inputSize  int
	hiddenSize int

	inputWeights  [][]float64 // [input][hidden]
	hiddenWeights []float64   // [hidden]
	hiddenBiases  []float64
	outputBias    float64

	epochs  int
	rate    float64
	trained bool
}

func NewPerceptron(hiddenSize, epochs int, rate float64) *Perceptron {
	if hiddenSize <= 0 {
		hiddenSize = 8
	}
	if epochs <= 0 {
		epochs = 50
	}
	if rate <= 0 {
		rate = 0.05
	}
	return &Perceptron{hiddenSize: hiddenSize, epochs: epochs, rate: rate}
}

func (p *Perceptron) init(inputSize int, rng *rand.Rand) {
	p.inputSize = inputSize
	p.inputWeights = make([][]float64, inputSize)
	for i := range p.inputWeights {
		p.inputWeights[i] = make([]float64, p.hiddenSize)
		for j := range p.inputWeights[i] {
			p.inputWeights[i][j] = (rng.Float64() - 0.5) * 0.1
		}
	}
	p.hiddenWeights = make([]float64, p.hiddenSize)
	p.hiddenBiases = make([]float64, p.hiddenSize)
	for j := range p.hiddenWeights {
		p.hiddenWeights[j] = (rng.Float64() - 0.5) * 0.1
		p.hiddenBiases[j] = (rng.Float64() - 0.5) * 0.1
	}
	p.outputBias = 0
}

func (p *Perceptron) forward(features []float64) (hidden []float64, out float64) {
	hidden = make([]float64, p.hiddenSize)
	for j := 0; j < p.hiddenSize; j++ {
		z := p.hiddenBiases[j]
		for i := 0; i < p.inputSize && i < len(features); i++ {
			z += features[i] * p.inputWeights[i][j]
		}
		if z > 0 {
			hidden[j] = z
		}
	}
	z := p.outputBias
	for j, h := range hidden {
		z += h * p.hiddenWeights[j]
	}
	return hidden, sigmoid(z)
}

// Fit trains by per-sample stochastic updates for the epoch budget.
func (p *Perceptron) Fit(samples []treeSample, rng *rand.Rand) {
	if len(samples) == 0 {
		return
	}
	p.init(len(samples[0].features), rng)

	for epoch := 0; epoch < p.epochs; epoch++ {
		for _, s := range samples {
			hidden, out := p.forward(s.features)
			// Output delta for sigmoid + cross-entropy.
			dOut := out - s.target

			for j := 0; j < p.hiddenSize; j++ {
				dHidden := dOut * p.hiddenWeights[j]
				p.hiddenWeights[j] -= p.rate * dOut * hidden[j]
				if hidden[j] > 0 { // ReLU gate
					for i := 0; i < p.inputSize && i < len(s.features); i++ {
						p.inputWeights[i][j] -= p.rate * dHidden * s.features[i]
					}
					p.hiddenBiases[j] -= p.rate * dHidden
				}
			}
			p.outputBias -= p.rate * dOut
		}
	}
	p.trained = true
}

// PredictProb returns the network output in [0,1].
func (p *Perceptron) PredictProb(features []float64) float64 {
	if p.inputSize == 0 {
		return 0.5
	}
	_, out := p.forward(features)
	return out
}

// Trained reports whether Fit has completed at least once.
func (p *Perceptron) Trained() bool {
	return p.trained
}
