package config

import (
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
)

// RetentionYAMLConfig is the system.retention block of config.yaml.
type RetentionYAMLConfig struct {
	MaxMetricsBatches int    `yaml:"max_metrics_batches,omitempty"`
	MaxIncidents      int    `yaml:"max_incidents,omitempty"`
	MaxAnomalies      int    `yaml:"max_anomalies,omitempty"`
	MaxRCARecords     int    `yaml:"max_rca_records,omitempty"`
	SweepInterval     string `yaml:"sweep_interval,omitempty"`
}

// RetentionConfig parameterizes the retention janitor.
type RetentionConfig struct {
	Caps          store.RetentionCaps
	SweepInterval time.Duration
}

// defaultRetentionCap mirrors pipeline.py's MAX_DOCS cleanup cap, applied
// per collection instead of globally.
const defaultRetentionCap = 10000

func defaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Caps: store.RetentionCaps{
			MetricsBatches: defaultRetentionCap,
			Incidents:      defaultRetentionCap,
			Anomalies:      defaultRetentionCap,
			RCARecords:     defaultRetentionCap,
		},
		SweepInterval: 1 * time.Hour,
	}
}

func resolveRetentionConfig(sys *RetentionYAMLConfig) RetentionConfig {
	cfg := defaultRetentionConfig()
	if sys == nil {
		return cfg
	}
	if sys.MaxMetricsBatches > 0 {
		cfg.Caps.MetricsBatches = sys.MaxMetricsBatches
	}
	if sys.MaxIncidents > 0 {
		cfg.Caps.Incidents = sys.MaxIncidents
	}
	if sys.MaxAnomalies > 0 {
		cfg.Caps.Anomalies = sys.MaxAnomalies
	}
	if sys.MaxRCARecords > 0 {
		cfg.Caps.RCARecords = sys.MaxRCARecords
	}
	if sys.SweepInterval != "" {
		if d, err := time.ParseDuration(sys.SweepInterval); err == nil {
			cfg.SweepInterval = d
		}
	}
	return cfg
}
