package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goslack "github.com/slack-go/slack"
)

const webhookTimeout = 10 * time.Second

// WebhookNotifier posts incident summaries to a Slack-style incoming
// webhook. A nil *WebhookNotifier is valid and every method is a no-op,
// letting callers construct one unconditionally and skip the channel when
// unconfigured, mirroring the teacher's optional-dependency constructors.
type WebhookNotifier struct {
	url      string
	username string
	icon     string
	http     *http.Client
	logger   *slog.Logger
}

// NewWebhookNotifier returns nil when url is empty, so the worker can call
// Send without checking configuration first.
func NewWebhookNotifier(url, username, icon string) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{
		url:      url,
		username: username,
		icon:     icon,
		http:     &http.Client{Timeout: webhookTimeout},
		logger:   slog.Default().With("component", "notify.webhook"),
	}
}

// Send posts the incident as a chat message. Only a 200 response counts as
// delivered; any other status (other 2xx codes included) or a transport
// error is logged and returned as a failed Result, never retried within
// the run, per §4.7.
func (n *WebhookNotifier) Send(inc Incident) Result {
	if n == nil {
		return Result{Channel: "chat"}
	}

	msg := &goslack.WebhookMessage{
		Text:      formatText(inc),
		Username:  n.username,
		IconEmoji: n.icon,
	}

	if err := goslack.PostWebhookCustomHTTP(n.url, n.http, msg); err != nil {
		n.logger.Error("chat webhook delivery failed", "user_id", inc.UserID, "error", err)
		return Result{Channel: "chat", Err: fmt.Errorf("chat webhook: %w", err)}
	}
	return Result{Channel: "chat"}
}
