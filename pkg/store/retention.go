package store

import (
	"context"
	"fmt"
)

// RetentionCaps configures how many newest rows survive a sweep, per
// collection, per §3's "keep at most N newest rows" lifecycle rule.
type RetentionCaps struct {
	MetricsBatches int
	Incidents      int
	Anomalies      int
	RCARecords     int
}

// capSpec pairs a table with the timestamp column retention orders by.
type capSpec struct {
	table  string
	column string
}

// EnforceRetention deletes the oldest rows in each collection beyond its
// configured cap, run out of band from the batch pipeline per §4.6.
func (s *Store) EnforceRetention(ctx context.Context, caps RetentionCaps) error {
	specs := []struct {
		capSpec
		n int
	}{
		{capSpec{"metrics_batches", "collected_at"}, caps.MetricsBatches},
		{capSpec{"incidents", "created_at"}, caps.Incidents},
		{capSpec{"anomalies", "created_at"}, caps.Anomalies},
		{capSpec{"rca_records", "timestamp"}, caps.RCARecords},
	}

	for _, sp := range specs {
		if sp.n <= 0 {
			continue
		}
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE id IN (
				SELECT id FROM %s ORDER BY %s DESC OFFSET $1
			)
		`, sp.table, sp.table, sp.column)
		if _, err := s.db.ExecContext(ctx, query, sp.n); err != nil {
			return fmt.Errorf("enforce retention on %s: %w", sp.table, err)
		}
	}
	return nil
}
