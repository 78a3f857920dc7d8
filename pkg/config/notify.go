package config

import "os"

// NotifyYAMLConfig is the system.notify block of config.yaml.
type NotifyYAMLConfig struct {
	SMTPHost     string   `yaml:"smtp_host,omitempty"`
	SMTPPort     string   `yaml:"smtp_port,omitempty"`
	SMTPFrom     string   `yaml:"smtp_from,omitempty"`
	SMTPUserEnv  string   `yaml:"smtp_user_env,omitempty"`
	SMTPPassEnv  string   `yaml:"smtp_pass_env,omitempty"`
	Recipients   []string `yaml:"recipients,omitempty"`
	WebhookUsername string `yaml:"webhook_username,omitempty"`
	WebhookIcon      string `yaml:"webhook_icon,omitempty"`
	WebhookURLEnv    string `yaml:"webhook_url_env,omitempty"`
}

const (
	defaultWebhookUsername = "aidevops-monitor"
	defaultWebhookIcon      = ":rotating_light:"
	defaultWebhookURLEnv    = "CHAT_WEBHOOK_URL"
	defaultSMTPUserEnv      = "SMTP_USERNAME"
	defaultSMTPPassEnv      = "SMTP_PASSWORD"
)

// SMTPConfig holds everything NewEmailNotifier needs.
type SMTPConfig struct {
	Host       string
	Port       string
	Username   string
	Password   string
	From       string
	Recipients []string
}

// WebhookConfig holds everything NewWebhookNotifier needs.
type WebhookConfig struct {
	URL      string
	Username string
	Icon     string
}

func resolveSMTPConfig(sys *NotifyYAMLConfig) SMTPConfig {
	if sys == nil {
		return SMTPConfig{}
	}

	userEnv := defaultSMTPUserEnv
	if sys.SMTPUserEnv != "" {
		userEnv = sys.SMTPUserEnv
	}
	passEnv := defaultSMTPPassEnv
	if sys.SMTPPassEnv != "" {
		passEnv = sys.SMTPPassEnv
	}

	return SMTPConfig{
		Host:       sys.SMTPHost,
		Port:       sys.SMTPPort,
		Username:   os.Getenv(userEnv),
		Password:   os.Getenv(passEnv),
		From:       sys.SMTPFrom,
		Recipients: sys.Recipients,
	}
}

func resolveWebhookConfig(sys *NotifyYAMLConfig) WebhookConfig {
	username := defaultWebhookUsername
	icon := defaultWebhookIcon
	urlEnv := defaultWebhookURLEnv

	if sys != nil {
		if sys.WebhookUsername != "" {
			username = sys.WebhookUsername
		}
		if sys.WebhookIcon != "" {
			icon = sys.WebhookIcon
		}
		if sys.WebhookURLEnv != "" {
			urlEnv = sys.WebhookURLEnv
		}
	}

	return WebhookConfig{
		URL:      os.Getenv(urlEnv),
		Username: username,
		Icon:     icon,
	}
}
