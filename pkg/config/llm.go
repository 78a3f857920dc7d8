package config

import (
	"fmt"
	"os"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/llmgateway"
)

// LLMYAMLConfig is the system.llm block of config.yaml — everything except
// the bare secret, which is always read from the environment.
type LLMYAMLConfig struct {
	PrimaryModel     string `yaml:"primary_model,omitempty"`
	PrimaryAPIKeyEnv string `yaml:"primary_api_key_env,omitempty"`

	SecondaryModel   string `yaml:"secondary_model,omitempty"`
	SecondaryBaseURL string `yaml:"secondary_base_url,omitempty"`
}

const (
	defaultPrimaryModel    = "claude-sonnet-4-5"
	defaultPrimaryAPIKeyEnv = "ANTHROPIC_API_KEY"
	defaultSecondaryModel   = "llama3"
	defaultSecondaryBaseURL = "http://localhost:11434"
)

// resolveLLMConfig builds the gateway config from YAML settings plus the
// environment variable the YAML names for the primary API key. The key
// itself is a required secret: Initialize fails validation when it is unset.
func resolveLLMConfig(sys *LLMYAMLConfig) llmgateway.Config {
	primaryModel := defaultPrimaryModel
	apiKeyEnv := defaultPrimaryAPIKeyEnv
	secondaryModel := defaultSecondaryModel
	secondaryBaseURL := defaultSecondaryBaseURL

	if sys != nil {
		if sys.PrimaryModel != "" {
			primaryModel = sys.PrimaryModel
		}
		if sys.PrimaryAPIKeyEnv != "" {
			apiKeyEnv = sys.PrimaryAPIKeyEnv
		}
		if sys.SecondaryModel != "" {
			secondaryModel = sys.SecondaryModel
		}
		if sys.SecondaryBaseURL != "" {
			secondaryBaseURL = sys.SecondaryBaseURL
		}
	}

	return llmgateway.Config{
		Primary: llmgateway.PrimaryConfig{
			APIKey: os.Getenv(apiKeyEnv),
			Model:  primaryModel,
		},
		Secondary: llmgateway.SecondaryConfig{
			BaseURL: secondaryBaseURL,
			Model:   secondaryModel,
		},
	}
}

func validateLLMConfig(cfg llmgateway.Config) error {
	if cfg.Primary.APIKey == "" {
		return NewValidationError("llm", "primary.api_key", fmt.Errorf("%w: set the env var named by primary_api_key_env", ErrMissingRequiredField))
	}
	return nil
}
