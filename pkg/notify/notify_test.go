package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIncident() Incident {
	return Incident{
		Title:       "High CPU across fleet",
		Severity:    "high",
		Confidence:  0.8,
		Summary:     "CPU spiked on host-a",
		RootCause:   "runaway process",
		BlastRadius: "single instance",
		WindowStart: "2026-07-31 10:00:00",
		WindowEnd:   "2026-07-31 10:15:00",
		UserID:      "tenant-a",
	}
}

func TestFormatTextContainsUppercasedSeverityTag(t *testing.T) {
	text := formatText(testIncident())
	assert.Contains(t, text, "[HIGH]")
}

func TestFormatHTMLContainsUppercasedSeverityTag(t *testing.T) {
	html := formatHTML(testIncident())
	assert.Contains(t, html, "[HIGH]")
	assert.Contains(t, html, "<html>")
}

func TestWebhookNotifierSendsPostWithSeverityTag(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "monitor-bot", ":robot_face:")
	require.NotNil(t, n)

	res := n.Send(testIncident())

	assert.True(t, res.Ok())
	assert.Equal(t, "chat", res.Channel)
	assert.Contains(t, received, "[HIGH]")
}

func TestWebhookNotifierReportsFailureOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "monitor-bot", "")
	res := n.Send(testIncident())

	assert.False(t, res.Ok())
	assert.Equal(t, "chat", res.Channel)
}

func TestNewWebhookNotifierReturnsNilWhenUnconfigured(t *testing.T) {
	n := NewWebhookNotifier("", "", "")
	assert.Nil(t, n)

	res := n.Send(testIncident())
	assert.True(t, res.Ok(), "a nil notifier's Send is a no-op success")
}

func TestNewEmailNotifierReturnsNilWhenUnconfigured(t *testing.T) {
	assert.Nil(t, NewEmailNotifier("", "", "", "", "", nil))
	assert.Nil(t, NewEmailNotifier("smtp.example.com", "587", "", "", "", nil))
}

func TestBuildMessageProducesMultipartAlternativeWithBothParts(t *testing.T) {
	body, err := buildMessage("monitor@example.com", []string{"oncall@example.com"}, testIncident())
	require.NoError(t, err)

	msg := string(body)
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "text/plain")
	assert.Contains(t, msg, "text/html")
	assert.True(t, strings.Contains(msg, "[HIGH]"))
}
