// Package worker implements the per-tenant batch pipeline of §4.8: align,
// guard, fetch, prompt, analyse, attribute, persist, notify, mark.
package worker

import (
	"context"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/llmgateway"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/notify"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/promsource"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
)

// TickState is the terminal state of one tick, per §4.8. Only Done writes
// a ledger entry.
type TickState int

const (
	StateSkip TickState = iota
	StateEmpty
	StateFail
	StateDone
)

func (s TickState) String() string {
	switch s {
	case StateSkip:
		return "skip"
	case StateEmpty:
		return "empty"
	case StateFail:
		return "fail"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config parameterizes one tenant's worker.
type Config struct {
	UserID             string
	IntervalMinutes    int
	MaxMetricsPerBatch int
	Model              string
	Location           *time.Location
}

// metricsSource is the subset of promsource.Client the worker needs.
type metricsSource interface {
	FetchForTenant(ctx context.Context, userID string) []promsource.Sample
}

// analyser is the subset of llmgateway.Gateway the worker needs.
type analyser interface {
	Analyse(ctx context.Context, sessionID, model, prompt string) llmgateway.Result
}

// repository is the subset of *store.Store the worker needs, narrowed so
// it can be faked in tests without a live database.
type repository interface {
	IsProcessed(ctx context.Context, userID, windowStartStr, windowEndStr string) (bool, error)
	InsertBatch(ctx context.Context, b *store.MetricsBatch) (int64, error)
	InsertIncident(ctx context.Context, inc *store.Incident) (int64, error)
	InsertAnomalies(ctx context.Context, anomalies []store.Anomaly) error
	InsertRCA(ctx context.Context, r *store.RCARecord) error
	UpsertLedger(ctx context.Context, userID, windowStartStr, windowEndStr, sessionID string, incidentID int64) error
	NotificationConfigsForTenant(ctx context.Context, userID string) ([]store.NotificationConfig, error)
}

// channelNotifier is the shared shape of WebhookNotifier and
// EmailNotifier's Send method.
type channelNotifier interface {
	Send(inc notify.Incident) notify.Result
}

// Health reports a worker's current state, mirroring the teacher's
// WorkerHealth shape.
type Health struct {
	UserID    string
	Status    string
	TicksDone int
	LastTick  time.Time
	LastState TickState
}
