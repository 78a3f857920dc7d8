package config

import "os"

// TracingConfig resolves the OTLP exporter credentials standing in for the
// original service's Langfuse client (§6, §9), read directly from the
// process environment since they are secrets, not YAML-managed knobs.
// Enabled reports whether both host and public/secret key are present;
// absence disables tracing entirely rather than failing startup, per §4.3's
// "tolerant of absence" contract.
type TracingConfig struct {
	Enabled   bool
	Endpoint  string
	PublicKey string
	SecretKey string
}

func resolveTracingConfig() TracingConfig {
	host := os.Getenv("LANGFUSE_HOST")
	public := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secret := os.Getenv("LANGFUSE_SECRET_KEY")

	return TracingConfig{
		Enabled:   host != "" && public != "" && secret != "",
		Endpoint:  host,
		PublicKey: public,
		SecretKey: secret,
	}
}
