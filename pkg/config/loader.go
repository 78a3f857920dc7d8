package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, validates, and returns ready-to-use
// configuration. This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load .env from configDir (best-effort; missing file is not fatal)
//  2. Load config.yaml, expanding ${VAR}/$VAR references
//  3. Merge built-in defaults with the loaded Defaults block
//  4. Resolve each component (LLM, batch, store, retention, notify) from
//     the merged YAML plus process secrets
//  5. Validate required fields
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"timezone", cfg.Timezone,
		"batch_interval_minutes", cfg.Batch.IntervalMinutes,
		"scheduler_interval_seconds", cfg.Scheduler.IntervalSeconds)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	yamlCfg, err := loadYAMLConfig(configDir)
	if err != nil {
		return nil, NewLoadError("config.yaml", err)
	}

	defaults := builtinDefaults()
	if yamlCfg.System != nil && yamlCfg.System.Defaults != nil {
		if err := mergo.Merge(defaults, yamlCfg.System.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge defaults: %w", err)
		}
	}

	loc, err := time.LoadLocation(defaults.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", defaults.Timezone, err)
	}

	var sys *SystemYAMLConfig
	if yamlCfg.System != nil {
		sys = yamlCfg.System
	} else {
		sys = &SystemYAMLConfig{}
	}

	return &Config{
		ConfigDir:    configDir,
		Timezone:     loc,
		Batch:        resolveBatchConfig(sys.Batch, defaults),
		Scheduler:    SchedulerConfig{IntervalSeconds: defaults.SchedulerIntervalSeconds},
		LLM:          resolveLLMConfig(sys.LLM),
		Metrics:      resolveMetricsConfig(sys.Metrics),
		Store:        resolveStoreConfig(sys.Store),
		SMTP:         resolveSMTPConfig(sys.Notify),
		Webhook:      resolveWebhookConfig(sys.Notify),
		Retention:    resolveRetentionConfig(sys.Retention),
		Tracing:      resolveTracingConfig(),
	}, nil
}

func validate(cfg *Config) error {
	if err := validateBatchConfig(cfg.Batch); err != nil {
		return err
	}
	if err := validateStoreConfig(cfg.Store); err != nil {
		return err
	}
	if err := validateLLMConfig(cfg.LLM); err != nil {
		return err
	}
	return nil
}

func loadYAMLConfig(configDir string) (*YAMLConfig, error) {
	path := filepath.Join(configDir, "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &YAMLConfig{}, nil
		}
		return nil, err
	}

	data = ExpandEnv(data)

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &cfg, nil
}
