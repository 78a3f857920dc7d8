package config

import "fmt"

// BatchYAMLConfig is the system.batch block of config.yaml.
type BatchYAMLConfig struct {
	IntervalMinutes    int `yaml:"interval_minutes,omitempty"`
	MaxMetricsPerBatch int `yaml:"max_metrics_per_batch,omitempty"`
}

// BatchConfig parameterizes every tenant worker's tick.
type BatchConfig struct {
	IntervalMinutes    int
	MaxMetricsPerBatch int
}

func resolveBatchConfig(sys *BatchYAMLConfig, defaults *Defaults) BatchConfig {
	cfg := BatchConfig{
		IntervalMinutes:    defaults.BatchIntervalMinutes,
		MaxMetricsPerBatch: defaults.MaxMetricsPerBatch,
	}
	if sys == nil {
		return cfg
	}
	if sys.IntervalMinutes > 0 {
		cfg.IntervalMinutes = sys.IntervalMinutes
	}
	if sys.MaxMetricsPerBatch > 0 {
		cfg.MaxMetricsPerBatch = sys.MaxMetricsPerBatch
	}
	return cfg
}

func validateBatchConfig(cfg BatchConfig) error {
	if cfg.IntervalMinutes <= 0 {
		return NewValidationError("batch", "interval_minutes", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if cfg.MaxMetricsPerBatch <= 0 {
		return NewValidationError("batch", "max_metrics_per_batch", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}
