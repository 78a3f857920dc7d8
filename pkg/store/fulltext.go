package store

import (
	"context"
	"database/sql"
)

// createGINIndexes adds the incident full-text search index over plain
// database/sql, the hand-written-SQL equivalent of the teacher's
// entgo.io/ent/dialect/sql-driven CreateGINIndexes — schema migrations
// handle everything golang-migrate expresses as plain DDL; this one needs
// a generated-column-free expression index ent's schema builder doesn't
// support either, so it stays a post-migration step here too.
func createGINIndexes(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_incidents_summary_rootcause_gin
		ON incidents USING GIN (to_tsvector('english', summary || ' ' || root_cause))
	`)
	return err
}
