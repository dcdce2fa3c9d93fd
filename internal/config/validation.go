package config

import "fmt"

func validate(cfg *Config) error {
	if cfg.Optimizer.WeightFloor >= cfg.Optimizer.WeightCeil {
		return fmt.Errorf("optimizer: weight_floor (%.2f) must be below weight_ceil (%.2f)",
			cfg.Optimizer.WeightFloor, cfg.Optimizer.WeightCeil)
	}
	if cfg.Optimizer.ExperimentProbability > 1 {
		return fmt.Errorf("optimizer: experiment_probability must be in (0,1], got %.2f",
			cfg.Optimizer.ExperimentProbability)
	}
	if cfg.Optimizer.PerturbationScale >= 1 {
		return fmt.Errorf("optimizer: perturbation_scale must be below 1, got %.2f",
			cfg.Optimizer.PerturbationScale)
	}
	if cfg.Calibrate.Alpha >= 1 {
		return fmt.Errorf("calibrate: alpha must be in (0,1), got %.2f", cfg.Calibrate.Alpha)
	}
	if cfg.Calibrate.MinConfidence >= cfg.Calibrate.MaxConfidence {
		return fmt.Errorf("calibrate: min_confidence (%.0f) must be below max_confidence (%.0f)",
			cfg.Calibrate.MinConfidence, cfg.Calibrate.MaxConfidence)
	}
	if cfg.Calibrate.MultiplierMin >= cfg.Calibrate.MultiplierMax {
		return fmt.Errorf("calibrate: multiplier_min must be below multiplier_max")
	}
	if cfg.Filter.MinBufferSize > cfg.Filter.BufferCapacity {
		return fmt.Errorf("filter: min_buffer_size (%d) exceeds buffer_capacity (%d)",
			cfg.Filter.MinBufferSize, cfg.Filter.BufferCapacity)
	}
	if cfg.Stabilize.SmoothAlpha >= 1 {
		return fmt.Errorf("stabilize: smooth_alpha must be in (0,1), got %.2f",
			cfg.Stabilize.SmoothAlpha)
	}
	if cfg.Overfit.IntervalLevel >= 1 {
		return fmt.Errorf("overfit: interval_level must be in (0,1), got %.2f",
			cfg.Overfit.IntervalLevel)
	}
	if sum := cfg.Horizon.ShortWeight + cfg.Horizon.MidWeight + cfg.Horizon.LongWeight; sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("horizon: bucket weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}
