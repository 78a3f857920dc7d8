// Package config loads process configuration from a YAML file plus
// environment variables, merging user overrides onto built-in defaults —
// the teacher's pkg/config idiom, re-scoped from agent/chain/MCP registries
// to the batch-monitoring domain's own knobs.
package config

import (
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/llmgateway"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
)

// Config is the fully-resolved, validated process configuration.
type Config struct {
	ConfigDir string

	Timezone *time.Location

	Batch     BatchConfig
	Scheduler SchedulerConfig
	LLM       llmgateway.Config
	Metrics   MetricsConfig
	Store     store.Config
	SMTP      SMTPConfig
	Webhook   WebhookConfig
	Retention RetentionConfig
	Tracing   TracingConfig
}

// SchedulerConfig holds the configured tenant-reconciliation interval. It is
// loaded and logged at startup; the scheduler does not read it and runs on
// its own fixed 300s interval.
type SchedulerConfig struct {
	IntervalSeconds int
}

// YAMLConfig mirrors the top-level shape of config.yaml.
type YAMLConfig struct {
	System *SystemYAMLConfig `yaml:"system"`
}

// SystemYAMLConfig groups the system-wide settings block.
type SystemYAMLConfig struct {
	Defaults  *Defaults            `yaml:"defaults"`
	LLM       *LLMYAMLConfig       `yaml:"llm"`
	Batch     *BatchYAMLConfig     `yaml:"batch"`
	Metrics   *MetricsYAMLConfig   `yaml:"metrics"`
	Retention *RetentionYAMLConfig `yaml:"retention"`
	Notify    *NotifyYAMLConfig    `yaml:"notify"`
	Store     *StoreYAMLConfig     `yaml:"store"`
}
