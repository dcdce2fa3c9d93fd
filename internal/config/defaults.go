package config

// applyDefaults fills every unset (zero) field with its production
// default. Zero is not a meaningful value for any tunable here, so the
// zero-means-default convention is safe.
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	if c.Engine.RetrainIntervalSeconds <= 0 {
		c.Engine.RetrainIntervalSeconds = 300
	}
	if c.Engine.WeightRefreshIntervalSeconds <= 0 {
		c.Engine.WeightRefreshIntervalSeconds = 90
	}
	if c.Engine.ThresholdRecomputeIntervalSeconds <= 0 {
		c.Engine.ThresholdRecomputeIntervalSeconds = 600
	}
	if c.Engine.StartupDelaySeconds <= 0 {
		c.Engine.StartupDelaySeconds = 5
	}
	if c.Engine.MinCompletedTrades <= 0 {
		c.Engine.MinCompletedTrades = 5
	}

	if c.Learner.TreeCount <= 0 {
		c.Learner.TreeCount = 10
	}
	if c.Learner.TreeDepth <= 0 {
		c.Learner.TreeDepth = 3
	}
	if c.Learner.LogisticEpochs <= 0 {
		c.Learner.LogisticEpochs = 100
	}
	if c.Learner.LogisticRate <= 0 {
		c.Learner.LogisticRate = 0.1
	}
	if c.Learner.HiddenSize <= 0 {
		c.Learner.HiddenSize = 8
	}
	if c.Learner.PerceptronEpochs <= 0 {
		c.Learner.PerceptronEpochs = 50
	}
	if c.Learner.PerceptronRate <= 0 {
		c.Learner.PerceptronRate = 0.05
	}
	if c.Learner.BoostRounds <= 0 {
		c.Learner.BoostRounds = 20
	}
	if c.Learner.BoostRate <= 0 {
		c.Learner.BoostRate = 0.1
	}
	if c.Learner.BoostEpsilon <= 0 {
		c.Learner.BoostEpsilon = 0.01
	}
	if c.Learner.NeutralBand <= 0 {
		c.Learner.NeutralBand = 0.004
	}
	if c.Learner.MinSymbolSamples <= 0 {
		c.Learner.MinSymbolSamples = 3
	}
	if c.Learner.MinGeneralSamples <= 0 {
		c.Learner.MinGeneralSamples = 10
	}

	if c.Optimizer.WeightFloor <= 0 {
		c.Optimizer.WeightFloor = 1.0
	}
	if c.Optimizer.WeightCeil <= 0 {
		c.Optimizer.WeightCeil = 5.0
	}
	if c.Optimizer.MinAdjustDelta <= 0 {
		c.Optimizer.MinAdjustDelta = 0.2
	}
	if c.Optimizer.ExperimentProbability <= 0 {
		c.Optimizer.ExperimentProbability = 0.05
	}
	if c.Optimizer.PerturbationScale <= 0 {
		c.Optimizer.PerturbationScale = 0.2
	}
	if c.Optimizer.BlendFraction <= 0 {
		c.Optimizer.BlendFraction = 0.1
	}
	if c.Optimizer.EvaluationWindow <= 0 {
		c.Optimizer.EvaluationWindow = 100
	}

	if c.Calibrate.Alpha <= 0 {
		c.Calibrate.Alpha = 0.25
	}
	if c.Calibrate.Window <= 0 {
		c.Calibrate.Window = 50
	}
	if c.Calibrate.MultiplierMin <= 0 {
		c.Calibrate.MultiplierMin = 0.8
	}
	if c.Calibrate.MultiplierMax <= 0 {
		c.Calibrate.MultiplierMax = 1.8
	}
	if c.Calibrate.EarlyLearningTrades <= 0 {
		c.Calibrate.EarlyLearningTrades = 150
	}
	if c.Calibrate.EarlyLearningBonus <= 0 {
		c.Calibrate.EarlyLearningBonus = 0.15
	}
	if c.Calibrate.MinConfidence <= 0 {
		c.Calibrate.MinConfidence = 20
	}
	if c.Calibrate.MaxConfidence <= 0 {
		c.Calibrate.MaxConfidence = 95
	}
	if c.Calibrate.StagnationCycles <= 0 {
		c.Calibrate.StagnationCycles = 5
	}
	if c.Calibrate.StagnationMinutes <= 0 {
		c.Calibrate.StagnationMinutes = 10
	}
	if c.Calibrate.StagnationDeltaLimit <= 0 {
		c.Calibrate.StagnationDeltaLimit = 2
	}

	if c.Filter.BufferCapacity <= 0 {
		c.Filter.BufferCapacity = 100
	}
	if c.Filter.MinBufferSize <= 0 {
		c.Filter.MinBufferSize = 10
	}
	if c.Filter.RecomputeEvery <= 0 {
		c.Filter.RecomputeEvery = 50
	}
	if c.Filter.ConfidenceFloor <= 0 {
		c.Filter.ConfidenceFloor = 35
	}
	if c.Filter.ProfitFloor <= 0 {
		c.Filter.ProfitFloor = 30
	}
	if c.Filter.RejectConfidence <= 0 {
		c.Filter.RejectConfidence = 25
	}
	if c.Filter.RejectProfit <= 0 {
		c.Filter.RejectProfit = 20
	}

	if c.Stabilize.WindowMinutes <= 0 {
		c.Stabilize.WindowMinutes = 10
	}
	if c.Stabilize.HistoryLimit <= 0 {
		c.Stabilize.HistoryLimit = 10
	}
	if c.Stabilize.BaseMaxDelta <= 0 {
		c.Stabilize.BaseMaxDelta = 6
	}
	if c.Stabilize.DirectionFlipDelta <= 0 {
		c.Stabilize.DirectionFlipDelta = 12
	}
	if c.Stabilize.PriceEpsilonPct <= 0 {
		c.Stabilize.PriceEpsilonPct = 0.05
	}
	if c.Stabilize.SmoothAlpha <= 0 {
		c.Stabilize.SmoothAlpha = 0.15
	}

	if c.Overfit.Window <= 0 {
		c.Overfit.Window = 50
	}
	if c.Overfit.TrendPoints <= 0 {
		c.Overfit.TrendPoints = 5
	}
	if c.Overfit.InSampleTrendMax <= 0 {
		c.Overfit.InSampleTrendMax = 0.05
	}
	if c.Overfit.OutSampleTrendMin >= 0 {
		c.Overfit.OutSampleTrendMin = -0.03
	}
	if c.Overfit.DivergenceLimit <= 0 {
		c.Overfit.DivergenceLimit = 2
	}
	if c.Overfit.ConfidenceStep <= 0 {
		c.Overfit.ConfidenceStep = 10
	}
	if c.Overfit.ConfidenceCap <= 0 {
		c.Overfit.ConfidenceCap = 85
	}
	if c.Overfit.SpikeRatio <= 1 {
		c.Overfit.SpikeRatio = 1.5
	}
	if c.Overfit.SpikeDecay <= 0 {
		c.Overfit.SpikeDecay = 0.15
	}
	if c.Overfit.BootstrapResamples <= 0 {
		c.Overfit.BootstrapResamples = 1000
	}
	if c.Overfit.BootstrapSample <= 0 {
		c.Overfit.BootstrapSample = 50
	}
	if c.Overfit.IntervalLevel <= 0 {
		c.Overfit.IntervalLevel = 0.90
	}
	if c.Overfit.UncertaintyRise <= 0 {
		c.Overfit.UncertaintyRise = 0.20
	}

	if c.Horizon.ShortWeight <= 0 {
		c.Horizon.ShortWeight = 0.40
	}
	if c.Horizon.MidWeight <= 0 {
		c.Horizon.MidWeight = 0.35
	}
	if c.Horizon.LongWeight <= 0 {
		c.Horizon.LongWeight = 0.25
	}
	if c.Horizon.AccuracyPivot <= 0 {
		c.Horizon.AccuracyPivot = 0.6
	}
	if c.Horizon.BoostScale <= 0 {
		c.Horizon.BoostScale = 50
	}
	if c.Horizon.BoostCap <= 0 {
		c.Horizon.BoostCap = 15
	}

	if c.Store.DatabasePath == "" {
		c.Store.DatabasePath = "data/signalcore.db"
	}
	if c.Store.OutcomeLimit <= 0 {
		c.Store.OutcomeLimit = 100
	}
	if c.Store.OutcomeSinceDays <= 0 {
		c.Store.OutcomeSinceDays = 30
	}
	if c.Store.IOTimeoutSeconds <= 0 {
		c.Store.IOTimeoutSeconds = 5
	}
}
