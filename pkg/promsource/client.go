// Package promsource adapts a Prometheus-compatible instant-query API into
// tenant-scoped, normalized metric samples, per §4.2.
package promsource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// selfTelemetryPrefixes is the set of series-name prefixes filtered out as
// the backend's own self-telemetry.
var selfTelemetryPrefixes = []string{"prom_", "go_", "scrape_", "promhttp_"}

// Sample is a transient, per-fetch metric reading, normalized to
// {name, value, instance, user_id}.
type Sample struct {
	Name     string
	Value    any // float64 when numeric coercion succeeds, else string
	Instance string
	UserID   string
}

// Client queries a Prometheus-compatible backend for tenant-scoped samples.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient returns a Client issuing queries against baseURL using a shared
// HTTP client with the given timeout — one of the process-wide singletons
// per §5.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     slog.With("component", "promsource"),
	}
}

type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []struct {
			Metric map[string]string `json:"metric"`
			Value  [2]any             `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

// FetchForTenant issues a single instant query `{user_id="<id>"}` and
// returns the normalized, filtered samples. It tolerates backend HTTP-level
// errors by returning an empty slice and logging — never by panicking up
// the stack; the caller treats "no metrics" as "skip this window".
func (c *Client) FetchForTenant(ctx context.Context, userID string) []Sample {
	query := fmt.Sprintf(`{user_id="%s"}`, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/query", nil)
	if err != nil {
		c.log.Error("building metrics query request failed", "user_id", userID, "error", err)
		return nil
	}
	q := url.Values{"query": {query}}
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("metrics backend request failed", "user_id", userID, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		c.log.Error("metrics backend returned non-2xx", "user_id", userID, "status", resp.StatusCode)
		return nil
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Error("decoding metrics backend response failed", "user_id", userID, "error", err)
		return nil
	}
	if parsed.Status != "success" {
		c.log.Error("metrics backend reported non-success status", "user_id", userID, "status", parsed.Status)
		return nil
	}

	samples := make([]Sample, 0, len(parsed.Data.Result))
	for _, r := range parsed.Data.Result {
		name := r.Metric["__name__"]
		if isSelfTelemetry(name) {
			continue
		}

		instance := r.Metric["instance"]
		if instance == "" {
			instance = "unknown"
		}

		var raw string
		if len(r.Value) == 2 {
			raw = fmt.Sprintf("%v", r.Value[1])
		}

		samples = append(samples, Sample{
			Name:     name,
			Value:    coerceNumber(raw),
			Instance: instance,
			UserID:   userID,
		})
	}

	return samples
}

func isSelfTelemetry(name string) bool {
	for _, p := range selfTelemetryPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func coerceNumber(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
