package config

import (
	"os"
	"time"
)

// defaultMetricsBackendURL matches the original service's PROM_URL default.
const defaultMetricsBackendURL = "http://localhost:9090"

const defaultMetricsTimeout = 10 * time.Second

// MetricsYAMLConfig configures the Prometheus-compatible metrics source,
// per §4.2.
type MetricsYAMLConfig struct {
	BaseURLEnv     string `yaml:"base_url_env,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// MetricsConfig is the resolved metrics-source configuration.
type MetricsConfig struct {
	BaseURL string
	Timeout time.Duration
}

func resolveMetricsConfig(sys *MetricsYAMLConfig) MetricsConfig {
	envVar := "PROM_URL"
	timeout := defaultMetricsTimeout

	if sys != nil {
		if sys.BaseURLEnv != "" {
			envVar = sys.BaseURLEnv
		}
		if sys.TimeoutSeconds > 0 {
			timeout = time.Duration(sys.TimeoutSeconds) * time.Second
		}
	}

	baseURL := os.Getenv(envVar)
	if baseURL == "" {
		baseURL = defaultMetricsBackendURL
	}

	return MetricsConfig{BaseURL: baseURL, Timeout: timeout}
}
