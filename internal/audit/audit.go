// Package audit persists execution records to SQLite so a capability trail
// survives process restarts. The executor's in-memory history stays the
// session-scoped source; this sink is durable and bounded by pruning.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/wardenhq/warden/internal/capability"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DefaultMaxRows bounds the table; Append prunes oldest-first past it.
const DefaultMaxRows = 10000

// Log is a SQLite-backed audit sink.
type Log struct {
	db      *sql.DB
	maxRows int
}

// Open initializes the audit database at baseDir/audit.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.warden.
func Open(baseDir string) (*Log, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "audit.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return &Log{db: db, maxRows: DefaultMaxRows}, nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append stores one execution record and prunes the oldest rows past the
// bound. Capability and result snapshots are stored as JSON; the indexed
// columns cover the common queries.
func (l *Log) Append(rec capability.ExecutionRecord) error {
	capJSON, err := json.Marshal(rec.Capability)
	if err != nil {
		return fmt.Errorf("failed to encode capability: %w", err)
	}
	resJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = l.db.Exec(`
		INSERT INTO executions (id, category, action, decision, success, capability_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Capability.Category,
		rec.Capability.Action,
		string(rec.Result.Decision),
		rec.Result.Success,
		string(capJSON),
		string(resJSON),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}

	_, err = l.db.Exec(`
		DELETE FROM executions WHERE id IN (
			SELECT id FROM executions ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?
		)`, l.maxRows)
	if err != nil {
		return fmt.Errorf("failed to prune execution records: %w", err)
	}
	return nil
}

// Recent returns the newest limit records, newest first. limit <= 0 means 50.
func (l *Log) Recent(limit int) ([]capability.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.Query(`
		SELECT id, capability_json, result_json, created_at
		FROM executions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var out []capability.ExecutionRecord
	for rows.Next() {
		var rec capability.ExecutionRecord
		var capJSON, resJSON string
		if err := rows.Scan(&rec.ID, &capJSON, &resJSON, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}
		if err := json.Unmarshal([]byte(capJSON), &rec.Capability); err != nil {
			return nil, fmt.Errorf("failed to decode capability: %w", err)
		}
		if err := json.Unmarshal([]byte(resJSON), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the stored record count.
func (l *Log) Count() (int, error) {
	var n int
	if err := l.db.QueryRow("SELECT COUNT(*) FROM executions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}
	return n, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("failed to get user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS executions (
		  id              TEXT PRIMARY KEY,
		  category        TEXT NOT NULL,
		  action          TEXT NOT NULL,
		  decision        TEXT NOT NULL,
		  success         INTEGER NOT NULL,
		  capability_json TEXT NOT NULL,
		  result_json     TEXT NOT NULL,
		  created_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_executions_created
		ON executions(created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_executions_category_action
		ON executions(category, action, created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec("PRAGMA user_version=1"); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}
