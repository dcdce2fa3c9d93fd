package store

import (
	"fmt"
	"os"

	"signalcore/internal/pkg/mathx"

	"gopkg.in/yaml.v3"
)

// seedProfile is the YAML shape of the shipped default-weight profile.
type seedProfile struct {
	Weights map[string]float64 `yaml:"weights"`
}

// LoadSeedWeights reads the indicator-weight seed profile used on
// first boot, before any weights have been learned. Weights outside
// the global bound are clamped.
func LoadSeedWeights(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed profile: %w", err)
	}
	var profile seedProfile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("parsing seed profile: %w", err)
	}
	out := make(map[string]float64, len(profile.Weights))
	for indicator, weight := range profile.Weights {
		out[indicator] = mathx.Clamp(weight, 0.1, 10)
	}
	return out, nil
}
