package notify

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
)

// EmailNotifier sends incident summaries over STARTTLS SMTP, as a
// multipart/alternative message with a plain-text part and an HTML part.
// A nil *EmailNotifier is valid and every method is a no-op, matching
// WebhookNotifier's construct-unconditionally pattern.
type EmailNotifier struct {
	host       string
	port       string
	username   string
	password   string
	from       string
	recipients []string
	logger     *slog.Logger
}

// NewEmailNotifier returns nil when host or recipients are empty.
func NewEmailNotifier(host, port, username, password, from string, recipients []string) *EmailNotifier {
	if host == "" || len(recipients) == 0 {
		return nil
	}
	return &EmailNotifier{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		recipients: recipients,
		logger:     slog.Default().With("component", "notify.email"),
	}
}

// Send delivers the incident to every configured recipient over one
// STARTTLS connection. Failure is logged and returned, never retried
// within the run, per §4.7.
func (n *EmailNotifier) Send(inc Incident) Result {
	if n == nil {
		return Result{Channel: "email"}
	}

	body, err := buildMessage(n.from, n.recipients, inc)
	if err != nil {
		n.logger.Error("email message build failed", "user_id", inc.UserID, "error", err)
		return Result{Channel: "email", Err: fmt.Errorf("build email: %w", err)}
	}

	if err := n.deliver(body); err != nil {
		n.logger.Error("email delivery failed", "user_id", inc.UserID, "error", err)
		return Result{Channel: "email", Err: fmt.Errorf("deliver email: %w", err)}
	}
	return Result{Channel: "email"}
}

func (n *EmailNotifier) deliver(body []byte) error {
	addr := net.JoinHostPort(n.host, n.port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	if n.username != "" {
		auth := smtp.PlainAuth("", n.username, n.password, n.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range n.recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := wc.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

func buildMessage(from string, recipients []string, inc Incident) ([]byte, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&buf, "Subject: [%s] %s\r\n", strings.ToUpper(inc.Severity), inc.Title)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	textPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(formatText(inc))); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("create html part: %w", err)
	}
	if _, err := htmlPart.Write([]byte(formatHTML(inc))); err != nil {
		return nil, fmt.Errorf("write html part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return []byte(buf.String()), nil
}
