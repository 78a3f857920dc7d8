package config

// Defaults holds system-wide defaults applied for any value the YAML file
// and environment leave unset.
type Defaults struct {
	Timezone                 string `yaml:"timezone,omitempty"`
	BatchIntervalMinutes     int    `yaml:"batch_interval_minutes,omitempty"`
	SchedulerIntervalSeconds int    `yaml:"scheduler_interval_seconds,omitempty"`
	MaxMetricsPerBatch       int    `yaml:"max_metrics_per_batch,omitempty"`
}

// defaultTimezone mirrors the IST civil-time convention of the retrieved
// original.
const defaultTimezone = "Asia/Kolkata"

// builtinDefaults returns the built-in defaults applied before YAML/env
// overrides.
func builtinDefaults() *Defaults {
	return &Defaults{
		Timezone:                 defaultTimezone,
		BatchIntervalMinutes:     15,
		SchedulerIntervalSeconds: 300,
		MaxMetricsPerBatch:       600,
	}
}
