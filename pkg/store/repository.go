package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code for a unique-index conflict.
const pgUniqueViolation = "23505"

// ErrLedgerConflict indicates a concurrent writer already marked this
// window processed, per §5's "later insert fails, earlier writes remain"
// guarantee and §7's ledger-conflict-means-Skip rule.
var ErrLedgerConflict = errors.New("window already processed by a concurrent writer")

// ActiveTenants returns the distinct set of user_ids with at least one
// enabled target, the scheduler's reconciliation source of truth per §4.9.
func (s *Store) ActiveTenants(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT user_id FROM targets WHERE enabled = true ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query active tenants: %w", err)
	}
	return ids, nil
}

// IsProcessed reports whether a ledger entry already exists for the given
// window, the §4.8 step 2 guard.
func (s *Store) IsProcessed(ctx context.Context, userID, windowStartStr, windowEndStr string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM window_ledger
			WHERE user_id = $1 AND window_start_str = $2 AND window_end_str = $3
		)
	`, userID, windowStartStr, windowEndStr)
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return exists, nil
}

// InsertBatch writes the metrics batch snapshot, the first write of a run
// per §4.6's ordering.
func (s *Store) InsertBatch(ctx context.Context, b *MetricsBatch) (int64, error) {
	metrics, err := json.Marshal(b.Metrics)
	if err != nil {
		return 0, fmt.Errorf("marshal metrics: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO metrics_batches
			(user_id, window_start, window_end, window_start_str, window_end_str,
			 collected_at, metrics, metrics_count, primary_instance, ip, port, source, session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id
	`, b.UserID, b.WindowStart, b.WindowEnd, b.WindowStartStr, b.WindowEndStr,
		b.CollectedAt, metrics, b.MetricsCount, b.PrimaryInstance, b.IP, b.Port, b.Source, b.SessionID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert metrics batch: %w", err)
	}
	return id, nil
}

// InsertIncident writes the single collective RCA for a batch, the second
// write of a run. A failure here aborts the tick without marking the
// window processed.
func (s *Store) InsertIncident(ctx context.Context, inc *Incident) (int64, error) {
	contributingFactors, err := json.Marshal(inc.ContributingFactors)
	if err != nil {
		return 0, fmt.Errorf("marshal contributing factors: %w", err)
	}
	evidence, err := json.Marshal(inc.Evidence)
	if err != nil {
		return 0, fmt.Errorf("marshal evidence: %w", err)
	}
	fixPlan, err := json.Marshal(inc.FixPlan)
	if err != nil {
		return 0, fmt.Errorf("marshal fix plan: %w", err)
	}
	clusters, err := json.Marshal(inc.Clusters)
	if err != nil {
		return 0, fmt.Errorf("marshal clusters: %w", err)
	}
	rawAnalysis, err := json.Marshal(inc.RawAnalysis)
	if err != nil {
		return 0, fmt.Errorf("marshal raw analysis: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO incidents
			(user_id, batch_id, window_start, window_end, window_start_str, window_end_str,
			 title, severity, confidence, summary, root_cause, contributing_factors,
			 blast_radius, evidence, fix_plan, clusters, raw_analysis,
			 primary_instance, ip, port, session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING id
	`, inc.UserID, inc.BatchID, inc.WindowStart, inc.WindowEnd, inc.WindowStartStr, inc.WindowEndStr,
		inc.Title, inc.Severity, inc.Confidence, inc.Summary, inc.RootCause, contributingFactors,
		inc.BlastRadius, evidence, fixPlan, clusters, rawAnalysis,
		inc.PrimaryInstance, inc.IP, inc.Port, inc.SessionID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert incident: %w", err)
	}
	return id, nil
}

// InsertAnomalies bulk-writes the attributed anomalies for a batch. Per
// §4.6, a failure here is logged by the caller but does not abort the
// window-processed marking.
func (s *Store) InsertAnomalies(ctx context.Context, anomalies []Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin anomalies tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO anomalies
			(user_id, batch_id, incident_id, metric, instance, ip, port, observed,
			 expected, symptom, cluster, severity, window_start_str, window_end_str, session_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`)
	if err != nil {
		return fmt.Errorf("prepare anomaly insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range anomalies {
		if _, err := stmt.ExecContext(ctx,
			a.UserID, a.BatchID, a.IncidentID, a.Metric, a.Instance, a.IP, a.Port, a.Observed,
			a.Expected, a.Symptom, a.Cluster, a.Severity, a.WindowStartStr, a.WindowEndStr, a.SessionID,
		); err != nil {
			return fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit anomalies tx: %w", err)
	}
	return nil
}

// InsertRCA writes the read-path convenience copy of an incident's root
// cause. Per §4.6, its failure does not abort the window-processed
// marking.
func (s *Store) InsertRCA(ctx context.Context, r *RCARecord) error {
	fix, err := json.Marshal(r.Fix)
	if err != nil {
		return fmt.Errorf("marshal fix: %w", err)
	}
	raw, err := json.Marshal(r.Raw)
	if err != nil {
		return fmt.Errorf("marshal raw: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rca_records
			(user_id, batch_id, incident_id, summary, cause, fix, raw, instance, ip, port)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, r.UserID, r.BatchID, r.IncidentID, r.Summary, r.Cause, fix, raw, r.Instance, r.IP, r.Port)
	if err != nil {
		return fmt.Errorf("insert rca record: %w", err)
	}
	return nil
}

// UpsertLedger marks a window processed, the §4.8 step 10 Mark transition
// and the sole guard against concurrent or repeated processing of the same
// window, per §5's ordering guarantees. The insert is bare (no upsert): a
// concurrent writer that already claimed this window must lose, not
// overwrite the first writer's incident_id/session_id, so a unique-index
// conflict here surfaces as ErrLedgerConflict rather than being absorbed.
func (s *Store) UpsertLedger(ctx context.Context, userID, windowStartStr, windowEndStr, sessionID string, incidentID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO window_ledger (user_id, window_start_str, window_end_str, session_id, incident_id)
		VALUES ($1,$2,$3,$4,$5)
	`, userID, windowStartStr, windowEndStr, sessionID, sql.NullInt64{Int64: incidentID, Valid: incidentID != 0})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrLedgerConflict
		}
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

// NotificationConfigsForTenant returns the enabled notification channels
// configured for a tenant.
func (s *Store) NotificationConfigsForTenant(ctx context.Context, userID string) ([]NotificationConfig, error) {
	var configs []NotificationConfig
	err := s.db.SelectContext(ctx, &configs, `
		SELECT user_id, channel, enabled, destination
		FROM notification_configs
		WHERE user_id = $1 AND enabled = true
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notification configs: %w", err)
	}
	return configs, nil
}
