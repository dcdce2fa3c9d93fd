package config

// Config is the top-level configuration for the signal engine.
type Config struct {
	App       AppConfig       `toml:"app"`
	Engine    EngineConfig    `toml:"engine"`
	Learner   LearnerConfig   `toml:"learner"`
	Optimizer OptimizerConfig `toml:"optimizer"`
	Calibrate CalibrateConfig `toml:"calibrate"`
	Filter    FilterConfig    `toml:"filter"`
	Stabilize StabilizeConfig `toml:"stabilize"`
	Overfit   OverfitConfig   `toml:"overfit"`
	Horizon   HorizonConfig   `toml:"horizon"`
	Store     StoreConfig     `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// EngineConfig controls the periodic loops and training gates.
type EngineConfig struct {
	RetrainIntervalSeconds            int  `toml:"retrain_interval_seconds"`
	WeightRefreshIntervalSeconds      int  `toml:"weight_refresh_interval_seconds"`
	ThresholdRecomputeIntervalSeconds int  `toml:"threshold_recompute_interval_seconds"`
	StartupDelaySeconds               int  `toml:"startup_delay_seconds"`
	MinCompletedTrades                int  `toml:"min_completed_trades"`
	RunImmediately                    bool `toml:"run_immediately"`
}

// LearnerConfig tunes the base learners and the boosted meta-model.
type LearnerConfig struct {
	TreeCount         int     `toml:"tree_count"`
	TreeDepth         int     `toml:"tree_depth"`
	LogisticEpochs    int     `toml:"logistic_epochs"`
	LogisticRate      float64 `toml:"logistic_rate"`
	HiddenSize        int     `toml:"hidden_size"`
	PerceptronEpochs  int     `toml:"perceptron_epochs"`
	PerceptronRate    float64 `toml:"perceptron_rate"`
	BoostRounds       int     `toml:"boost_rounds"`
	BoostRate         float64 `toml:"boost_rate"`
	BoostEpsilon      float64 `toml:"boost_epsilon"`
	NeutralBand       float64 `toml:"neutral_band"`
	MinSymbolSamples  int     `toml:"min_symbol_samples"`
	MinGeneralSamples int     `toml:"min_general_samples"`
}

// OptimizerConfig tunes reward-driven weight updates and exploration.
type OptimizerConfig struct {
	WeightFloor           float64 `toml:"weight_floor"`
	WeightCeil            float64 `toml:"weight_ceil"`
	MinAdjustDelta        float64 `toml:"min_adjust_delta"`
	ExperimentProbability float64 `toml:"experiment_probability"`
	PerturbationScale     float64 `toml:"perturbation_scale"`
	BlendFraction         float64 `toml:"blend_fraction"`
	EvaluationWindow      int     `toml:"evaluation_window"`
}

type CalibrateConfig struct {
	Alpha                float64 `toml:"alpha"`
	Window               int     `toml:"window"`
	MultiplierMin        float64 `toml:"multiplier_min"`
	MultiplierMax        float64 `toml:"multiplier_max"`
	EarlyLearningTrades  int     `toml:"early_learning_trades"`
	EarlyLearningBonus   float64 `toml:"early_learning_bonus"`
	MinConfidence        float64 `toml:"min_confidence"`
	MaxConfidence        float64 `toml:"max_confidence"`
	StagnationCycles     int     `toml:"stagnation_cycles"`
	StagnationMinutes    int     `toml:"stagnation_minutes"`
	StagnationDeltaLimit float64 `toml:"stagnation_delta_limit"`
}

type FilterConfig struct {
	BufferCapacity   int     `toml:"buffer_capacity"`
	MinBufferSize    int     `toml:"min_buffer_size"`
	RecomputeEvery   int     `toml:"recompute_every"`
	ConfidenceFloor  float64 `toml:"confidence_floor"`
	ProfitFloor      float64 `toml:"profit_floor"`
	RejectConfidence float64 `toml:"reject_confidence"`
	RejectProfit     float64 `toml:"reject_profit"`
}

type StabilizeConfig struct {
	WindowMinutes      int     `toml:"window_minutes"`
	HistoryLimit       int     `toml:"history_limit"`
	BaseMaxDelta       float64 `toml:"base_max_delta"`
	DirectionFlipDelta float64 `toml:"direction_flip_delta"`
	PriceEpsilonPct    float64 `toml:"price_epsilon_pct"`
	SmoothAlpha        float64 `toml:"smooth_alpha"`
}

type OverfitConfig struct {
	Window             int     `toml:"window"`
	TrendPoints        int     `toml:"trend_points"`
	InSampleTrendMax   float64 `toml:"in_sample_trend_max"`
	OutSampleTrendMin  float64 `toml:"out_sample_trend_min"`
	DivergenceLimit    int     `toml:"divergence_limit"`
	ConfidenceStep     float64 `toml:"confidence_step"`
	ConfidenceCap      float64 `toml:"confidence_cap"`
	SpikeRatio         float64 `toml:"spike_ratio"`
	SpikeDecay         float64 `toml:"spike_decay"`
	BootstrapResamples int     `toml:"bootstrap_resamples"`
	BootstrapSample    int     `toml:"bootstrap_sample"`
	IntervalLevel      float64 `toml:"interval_level"`
	UncertaintyRise    float64 `toml:"uncertainty_rise"`
}

type HorizonConfig struct {
	ShortWeight   float64 `toml:"short_weight"`
	MidWeight     float64 `toml:"mid_weight"`
	LongWeight    float64 `toml:"long_weight"`
	AccuracyPivot float64 `toml:"accuracy_pivot"`
	BoostScale    float64 `toml:"boost_scale"`
	BoostCap      float64 `toml:"boost_cap"`
}

type StoreConfig struct {
	DatabasePath     string `toml:"database_path"`
	OutcomeDBPath    string `toml:"outcome_db_path"`
	SeedProfilePath  string `toml:"seed_profile_path"`
	OutcomeLimit     int    `toml:"outcome_limit"`
	OutcomeSinceDays int    `toml:"outcome_since_days"`
	IOTimeoutSeconds int    `toml:"io_timeout_seconds"`
}
