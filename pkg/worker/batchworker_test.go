package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/llmgateway"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/notify"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/promsource"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/tracing"
)

type fakeMetrics struct {
	samples []promsource.Sample
}

func (f fakeMetrics) FetchForTenant(ctx context.Context, userID string) []promsource.Sample {
	return f.samples
}

type fakeAnalyser struct {
	result llmgateway.Result
}

func (f fakeAnalyser) Analyse(ctx context.Context, sessionID, model, prompt string) llmgateway.Result {
	return f.result
}

type fakeRepo struct {
	processed    bool
	processedErr error

	insertBatchErr    error
	insertIncidentErr error
	insertAnomaliesErr error
	insertRCAErr      error
	upsertLedgerErr   error

	configs []store.NotificationConfig

	batches    []store.MetricsBatch
	incidents  []store.Incident
	anomalies  [][]store.Anomaly
	ledgerCalls int
}

func (f *fakeRepo) IsProcessed(ctx context.Context, userID, windowStartStr, windowEndStr string) (bool, error) {
	return f.processed, f.processedErr
}

func (f *fakeRepo) InsertBatch(ctx context.Context, b *store.MetricsBatch) (int64, error) {
	if f.insertBatchErr != nil {
		return 0, f.insertBatchErr
	}
	f.batches = append(f.batches, *b)
	return int64(len(f.batches)), nil
}

func (f *fakeRepo) InsertIncident(ctx context.Context, inc *store.Incident) (int64, error) {
	if f.insertIncidentErr != nil {
		return 0, f.insertIncidentErr
	}
	f.incidents = append(f.incidents, *inc)
	return int64(len(f.incidents)), nil
}

func (f *fakeRepo) InsertAnomalies(ctx context.Context, anomalies []store.Anomaly) error {
	if f.insertAnomaliesErr != nil {
		return f.insertAnomaliesErr
	}
	f.anomalies = append(f.anomalies, anomalies)
	return nil
}

func (f *fakeRepo) InsertRCA(ctx context.Context, r *store.RCARecord) error {
	return f.insertRCAErr
}

func (f *fakeRepo) UpsertLedger(ctx context.Context, userID, windowStartStr, windowEndStr, sessionID string, incidentID int64) error {
	f.ledgerCalls++
	return f.upsertLedgerErr
}

func (f *fakeRepo) NotificationConfigsForTenant(ctx context.Context, userID string) ([]store.NotificationConfig, error) {
	return f.configs, nil
}

type fakeChannel struct {
	sent int
	ok   bool
}

func (f *fakeChannel) Send(inc notify.Incident) notify.Result {
	f.sent++
	if f.ok {
		return notify.Result{Channel: "chat"}
	}
	return notify.Result{Channel: "chat", Err: errors.New("delivery failed")}
}

func testConfig() Config {
	return Config{
		UserID:             "user-1",
		IntervalMinutes:    15,
		MaxMetricsPerBatch: 100,
		Model:              "test-model",
		Location:           time.UTC,
	}
}

func newTestWorker(metrics metricsSource, llm analyser, repo repository, webhook, email channelNotifier) *Worker {
	return New(testConfig(), metrics, llm, repo, tracing.New("test"), webhook, email)
}

func TestTickSkipsAlreadyProcessedWindow(t *testing.T) {
	repo := &fakeRepo{processed: true}
	w := newTestWorker(fakeMetrics{}, fakeAnalyser{}, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateSkip, state)
	assert.Equal(t, 0, repo.ledgerCalls)
}

func TestTickReturnsEmptyWhenNoSamples(t *testing.T) {
	repo := &fakeRepo{}
	w := newTestWorker(fakeMetrics{samples: nil}, fakeAnalyser{}, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateEmpty, state)
}

func TestTickFailsWhenProviderUnavailable(t *testing.T) {
	repo := &fakeRepo{}
	metrics := fakeMetrics{samples: []promsource.Sample{{Name: "cpu_usage", Value: 99.0, Instance: "host-a:9100"}}}
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindUnavailable}}
	w := newTestWorker(metrics, llm, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateFail, state)
}

func TestTickPersistsAndMarksLedgerOnSuccess(t *testing.T) {
	repo := &fakeRepo{configs: []store.NotificationConfig{
		{UserID: "user-1", Channel: store.ChannelChat, Enabled: true},
		{UserID: "user-1", Channel: store.ChannelEmail, Enabled: true},
	}}
	metrics := fakeMetrics{samples: []promsource.Sample{
		{Name: "cpu_usage", Value: 99.0, Instance: "host-a:9100"},
	}}
	analysisJSON := `{
		"incident": {
			"title": "CPU saturation",
			"severity": "high",
			"confidence": 0.9,
			"summary": "CPU pegged on host-a",
			"root_cause": "runaway process",
			"evidence": [{"metric":"cpu_usage","instance":"host-a:9100","value":99,"why_it_matters":"saturated"}]
		},
		"anomalies": [{"metric":"cpu_usage","instance":"host-a:9100","observed":99,"expected":"<80","symptom":"spike"}]
	}`
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindOk, Text: analysisJSON, Provider: llmgateway.ProviderPrimary}}
	webhook := &fakeChannel{ok: true}
	email := &fakeChannel{ok: true}
	w := newTestWorker(metrics, llm, repo, webhook, email)

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	require.Len(t, repo.batches, 1)
	require.Len(t, repo.incidents, 1)
	assert.Equal(t, "CPU saturation", repo.incidents[0].Title)
	assert.Equal(t, "host-a:9100", repo.incidents[0].PrimaryInstance)
	require.Len(t, repo.anomalies, 1)
	assert.Equal(t, 1, repo.ledgerCalls)
	assert.Equal(t, 1, webhook.sent)
	assert.Equal(t, 1, email.sent)
}

func TestTickSkipsWhenLedgerConflictsWithConcurrentWriter(t *testing.T) {
	repo := &fakeRepo{upsertLedgerErr: store.ErrLedgerConflict}
	metrics := fakeMetrics{samples: []promsource.Sample{{Name: "cpu_usage", Value: 1.0, Instance: "host-a:9100"}}}
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindOk, Text: `{"incident":{"title":"x","summary":"y"}}`}}
	w := newTestWorker(metrics, llm, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateSkip, state)
	assert.Equal(t, 1, repo.ledgerCalls)
}

func TestTickFailsWhenInsertBatchErrors(t *testing.T) {
	repo := &fakeRepo{insertBatchErr: errors.New("db down")}
	metrics := fakeMetrics{samples: []promsource.Sample{{Name: "cpu_usage", Value: 1.0, Instance: "host-a:9100"}}}
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindOk, Text: `{"incident":{"title":"x","summary":"y"}}`}}
	w := newTestWorker(metrics, llm, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())

	require.Error(t, err)
	assert.Equal(t, StateFail, state)
	assert.Equal(t, 0, repo.ledgerCalls)
}

func TestTickStillMarksLedgerWhenAnomaliesInsertFails(t *testing.T) {
	repo := &fakeRepo{insertAnomaliesErr: errors.New("constraint violation")}
	metrics := fakeMetrics{samples: []promsource.Sample{{Name: "cpu_usage", Value: 1.0, Instance: "host-a:9100"}}}
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindOk, Text: `{"incident":{"title":"x","summary":"y"},"anomalies":[{"metric":"cpu_usage","instance":"host-a:9100"}]}`}}
	w := newTestWorker(metrics, llm, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	assert.Equal(t, 1, repo.ledgerCalls)
}

func TestDispatchNotificationsOnlySendsEnabledChannels(t *testing.T) {
	repo := &fakeRepo{configs: []store.NotificationConfig{
		{UserID: "user-1", Channel: store.ChannelChat, Enabled: true},
	}}
	metrics := fakeMetrics{samples: []promsource.Sample{{Name: "cpu_usage", Value: 1.0, Instance: "host-a:9100"}}}
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindOk, Text: `{"incident":{"title":"x","summary":"y"}}`}}
	webhook := &fakeChannel{ok: true}
	email := &fakeChannel{ok: true}
	w := newTestWorker(metrics, llm, repo, webhook, email)

	state, err := w.tick(t.Context())

	require.NoError(t, err)
	assert.Equal(t, StateDone, state)
	assert.Equal(t, 1, webhook.sent)
	assert.Equal(t, 0, email.sent)
}

func TestHealthReflectsCompletedTicks(t *testing.T) {
	repo := &fakeRepo{}
	metrics := fakeMetrics{samples: []promsource.Sample{{Name: "cpu_usage", Value: 1.0, Instance: "host-a:9100"}}}
	llm := fakeAnalyser{result: llmgateway.Result{Kind: llmgateway.KindOk, Text: `{"incident":{"title":"x","summary":"y"}}`}}
	w := newTestWorker(metrics, llm, repo, &fakeChannel{ok: true}, &fakeChannel{ok: true})

	state, err := w.tick(t.Context())
	require.NoError(t, err)
	w.recordTick(state)

	h := w.Health()
	assert.Equal(t, "user-1", h.UserID)
	assert.Equal(t, 1, h.TicksDone)
	assert.Equal(t, StateDone, h.LastState)
}
