package metrics

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/riskgraph/internal/graph"
)

// sqliteSchema is executed on every open; IF NOT EXISTS keeps it idempotent.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS node_metrics (
    run_id   TEXT    NOT NULL,
    position INTEGER NOT NULL,
    node     TEXT    NOT NULL,
    type     TEXT    NOT NULL DEFAULT '',
    degree   INTEGER NOT NULL,
    pagerank REAL    NOT NULL,
    PRIMARY KEY (run_id, node)
);
`

// SQLiteStore persists metric rows keyed by run ID, so a downstream
// classifier can join features from several batches.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("metrics: open database: %w", err)
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("metrics: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("metrics: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// WriteRun replaces the rows stored for runID with ms in a single
// transaction.
func (s *SQLiteStore) WriteRun(ctx context.Context, runID string, ms []Metric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metrics: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM node_metrics WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("metrics: clear run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO node_metrics (run_id, position, node, type, degree, pagerank)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("metrics: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range ms {
		if _, err := stmt.ExecContext(ctx, runID, i, m.Node, string(m.Type), m.Degree, m.PageRank); err != nil {
			return fmt.Errorf("metrics: insert %q: %w", m.Node, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("metrics: commit run %s: %w", runID, err)
	}
	return nil
}

// ReadRun returns the rows stored for runID in their original order.
func (s *SQLiteStore) ReadRun(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node, type, degree, pagerank FROM node_metrics
		WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("metrics: query run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var (
			m   Metric
			typ string
		)
		if err := rows.Scan(&m.Node, &typ, &m.Degree, &m.PageRank); err != nil {
			return nil, fmt.Errorf("metrics: scan run %s: %w", runID, err)
		}
		m.Type = graph.NodeType(typ)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metrics: iterate run %s: %w", runID, err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
