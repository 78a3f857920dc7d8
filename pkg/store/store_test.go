package store_test

import (
	"context"
	stdsql "database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
	"github.com/nervesparksdev05/aidevops-monitor/test/util"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db := util.SetupTestDatabase(t, func(ctx context.Context, db *stdsql.DB) error {
		return store.ApplyMigrations(ctx, db, "test")
	})
	return store.NewFromDB(sqlx.NewDb(db, "pgx"))
}

func TestIsProcessedReflectsLedgerUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	processed, err := s.IsProcessed(ctx, "tenant-a", "202607311000", "202607311015")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, s.UpsertLedger(ctx, "tenant-a", "202607311000", "202607311015", "batch:202607311000-202607311015_user_tenant-a", 0))

	processed, err = s.IsProcessed(ctx, "tenant-a", "202607311000", "202607311015")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestUpsertLedgerRejectsConcurrentDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.UpsertLedger(ctx, "tenant-a", "202607311000", "202607311015", "session-1", 0))

	err := s.UpsertLedger(ctx, "tenant-a", "202607311000", "202607311015", "session-2", 0)
	require.ErrorIs(t, err, store.ErrLedgerConflict)

	var count int
	require.NoError(t, s.DB().GetContext(ctx, &count, `
		SELECT count(*) FROM window_ledger WHERE user_id = $1
	`, "tenant-a"))
	assert.Equal(t, 1, count)
}

func TestActiveTenantsReturnsOnlyTenantsWithEnabledTargets(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO targets (user_id, name, endpoint, enabled) VALUES
			('tenant-a', 'svc-a', 'host-a:9100', true),
			('tenant-b', 'svc-b', 'host-b:9100', false)
	`)
	require.NoError(t, err)

	tenants, err := s.ActiveTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-a"}, tenants)
}

func TestInsertBatchIncidentAnomaliesRCAAndLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	now := time.Now().UTC()

	batchID, err := s.InsertBatch(ctx, &store.MetricsBatch{
		UserID:          "tenant-a",
		WindowStart:     now,
		WindowEnd:       now.Add(15 * time.Minute),
		WindowStartStr:  "202607311000",
		WindowEndStr:    "202607311015",
		CollectedAt:     now,
		Metrics:         []store.Sample{{Name: "cpu_usage", Value: 0.9, Instance: "host-a:9100"}},
		MetricsCount:    1,
		PrimaryInstance: "host-a:9100",
		IP:              "host-a",
		Port:            "9100",
		Source:          "prometheus",
		SessionID:       "batch:202607311000-202607311015_user_tenant-a",
	})
	require.NoError(t, err)
	assert.NotZero(t, batchID)

	incidentID, err := s.InsertIncident(ctx, &store.Incident{
		UserID:              "tenant-a",
		BatchID:              batchID,
		WindowStart:         now,
		WindowEnd:           now.Add(15 * time.Minute),
		WindowStartStr:      "202607311000",
		WindowEndStr:        "202607311015",
		Title:               "High CPU across fleet",
		Severity:            "high",
		Confidence:          0.8,
		Summary:             "CPU spiked on host-a",
		RootCause:           "runaway process",
		ContributingFactors: []string{"deploy at 09:55"},
		BlastRadius:         "single instance",
		Evidence:            []store.Evidence{{Metric: "cpu_usage", Instance: "host-a:9100", Value: 0.9, WhyItMatters: "above threshold"}},
		FixPlan:             store.FixPlan{Immediate: []string{"restart service"}},
		Clusters:            []store.Cluster{{Name: "cpu", Theme: "resource exhaustion", AnomalyIndexes: []int{0}}},
		RawAnalysis:         map[string]any{"incident": map[string]any{"title": "High CPU across fleet"}},
		PrimaryInstance:     "host-a:9100",
		IP:                  "host-a",
		Port:                "9100",
		SessionID:           "batch:202607311000-202607311015_user_tenant-a",
	})
	require.NoError(t, err)
	assert.NotZero(t, incidentID)

	require.NoError(t, s.InsertAnomalies(ctx, []store.Anomaly{{
		UserID:         "tenant-a",
		BatchID:        batchID,
		IncidentID:     incidentID,
		Metric:         "cpu_usage",
		Instance:       "host-a:9100",
		IP:             "host-a",
		Port:           "9100",
		Observed:       0.9,
		Expected:       "< 0.7",
		Symptom:        "sustained high CPU",
		Cluster:        "cpu",
		Severity:       "high",
		WindowStartStr: "202607311000",
		WindowEndStr:   "202607311015",
		SessionID:      "batch:202607311000-202607311015_user_tenant-a",
	}}))

	require.NoError(t, s.InsertRCA(ctx, &store.RCARecord{
		UserID:     "tenant-a",
		BatchID:    batchID,
		IncidentID: incidentID,
		Summary:    "CPU spiked on host-a",
		Cause:      "runaway process",
		Fix:        []string{"restart service"},
		Raw:        map[string]any{"cause": "runaway process"},
		Instance:   "host-a:9100",
		IP:         "host-a",
		Port:       "9100",
	}))

	require.NoError(t, s.UpsertLedger(ctx, "tenant-a", "202607311000", "202607311015",
		"batch:202607311000-202607311015_user_tenant-a", incidentID))

	processed, err := s.IsProcessed(ctx, "tenant-a", "202607311000", "202607311015")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestEnforceRetentionKeepsOnlyNewestRows(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()
	now := time.Now().UTC()

	var batchID int64
	for i := 0; i < 5; i++ {
		id, err := s.InsertBatch(ctx, &store.MetricsBatch{
			UserID:          "tenant-a",
			WindowStart:     now,
			WindowEnd:       now.Add(15 * time.Minute),
			WindowStartStr:  "202607311000",
			WindowEndStr:    "202607311015",
			CollectedAt:     now.Add(time.Duration(i) * time.Minute),
			Metrics:         []store.Sample{},
			MetricsCount:    0,
			PrimaryInstance: "unknown",
			IP:              "unknown",
			Port:            "",
			Source:          "prometheus",
			SessionID:       "s",
		})
		require.NoError(t, err)
		batchID = id
	}
	_ = batchID

	require.NoError(t, s.EnforceRetention(ctx, store.RetentionCaps{MetricsBatches: 2}))

	var count int
	require.NoError(t, s.DB().GetContext(ctx, &count, `SELECT count(*) FROM metrics_batches WHERE user_id = $1`, "tenant-a"))
	assert.Equal(t, 2, count)
}
