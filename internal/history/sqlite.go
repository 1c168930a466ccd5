package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"advisor/pkg/models"
)

// SQLiteStore is a durable Store backed by SQLite. It serves as the
// persistence port for decision points; the derived aggregates are still
// computed in memory from the retained rows.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// DefaultDBPath returns the XDG data path for the advisor history database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "advisor", "history.db")
}

// NewSQLiteStore opens (creating if necessary) the history database at
// dbPath and applies migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode keeps concurrent reads cheap while appends stream in.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &SQLiteStore{db: conn, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string { return s.dbPath }

// migrate creates the schema if it does not exist.
func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history_schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM history_schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1DecisionPoints},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec("INSERT INTO history_schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

const migrationV1DecisionPoints = `
CREATE TABLE IF NOT EXISTS decision_points (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	query TEXT NOT NULL,
	primary_worker_id TEXT NOT NULL,
	secondary_worker_ids TEXT,
	initial_context TEXT,
	outcome TEXT NOT NULL DEFAULT 'pending',
	success_metrics TEXT
);

CREATE INDEX IF NOT EXISTS idx_decision_points_timestamp ON decision_points(timestamp);
CREATE INDEX IF NOT EXISTS idx_decision_points_outcome ON decision_points(outcome);
`

// Append inserts a decision point row.
func (s *SQLiteStore) Append(dp models.DecisionPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dp.ID == "" {
		return fmt.Errorf("decision point requires an id")
	}
	if dp.Outcome == "" {
		dp.Outcome = models.OutcomePending
	}

	secondaries, err := json.Marshal(dp.SecondaryWorkerIDs)
	if err != nil {
		return fmt.Errorf("marshal secondaries: %w", err)
	}
	initialCtx, err := json.Marshal(dp.InitialContext)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	metrics, err := json.Marshal(dp.SuccessMetrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO decision_points (
			id, timestamp, query, primary_worker_id,
			secondary_worker_ids, initial_context, outcome, success_metrics
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		dp.ID,
		formatTime(dp.Timestamp),
		dp.Query,
		dp.PrimaryWorkerID,
		string(secondaries),
		string(initialCtx),
		string(dp.Outcome),
		string(metrics),
	)
	if err != nil {
		return fmt.Errorf("insert decision point: %w", err)
	}
	return nil
}

// AttachOutcome sets a pending row's outcome, exactly once.
func (s *SQLiteStore) AttachOutcome(id string, outcome models.Outcome, metrics map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !outcome.Valid() || outcome == models.OutcomePending {
		return fmt.Errorf("invalid outcome %q", outcome)
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE decision_points SET outcome = ?, success_metrics = ?
		WHERE id = ? AND outcome = 'pending'
	`, string(outcome), string(metricsJSON), id)
	if err != nil {
		return fmt.Errorf("update decision point: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("decision point %q not found or outcome already attached", id)
	}
	return nil
}

// Recent returns up to n most recent rows, newest first.
func (s *SQLiteStore) Recent(n int) ([]models.DecisionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT id, timestamp, query, primary_worker_id,
		       secondary_worker_ids, initial_context, outcome, success_metrics
		FROM decision_points ORDER BY rowid DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	return scanDecisionPoints(rows)
}

// All returns every row in append order.
func (s *SQLiteStore) All() ([]models.DecisionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, timestamp, query, primary_worker_id,
		       secondary_worker_ids, initial_context, outcome, success_metrics
		FROM decision_points ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanDecisionPoints(rows)
}

// Len returns the number of rows.
func (s *SQLiteStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM decision_points").Scan(&count); err != nil {
		return 0, fmt.Errorf("count decision points: %w", err)
	}
	return count, nil
}

// CountSince counts rows stamped at or after t.
func (s *SQLiteStore) CountSince(t time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM decision_points WHERE timestamp >= ?",
		formatTime(t),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count since: %w", err)
	}
	return count, nil
}

// TopicCounts returns per-topic frequencies in first-seen order.
func (s *SQLiteStore) TopicCounts() ([]TopicCount, error) {
	points, err := s.All()
	if err != nil {
		return nil, err
	}
	return topicCounts(points), nil
}

// Patterns derives repeated-context aggregates for the signal fields.
// The whole table is loaded; acceptable at the advisory-session scale this
// store sees.
func (s *SQLiteStore) Patterns(signalFields []string) ([]models.Pattern, error) {
	points, err := s.All()
	if err != nil {
		return nil, err
	}
	return derivePatterns(points, signalFields), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Verify SQLiteStore implements Store at compile time.
var _ Store = (*SQLiteStore)(nil)

// scanDecisionPoints reads rows into decision points.
func scanDecisionPoints(rows *sql.Rows) ([]models.DecisionPoint, error) {
	var out []models.DecisionPoint
	for rows.Next() {
		var (
			dp          models.DecisionPoint
			timestamp   string
			secondaries sql.NullString
			initialCtx  sql.NullString
			metrics     sql.NullString
			outcome     string
		)
		if err := rows.Scan(
			&dp.ID, &timestamp, &dp.Query, &dp.PrimaryWorkerID,
			&secondaries, &initialCtx, &outcome, &metrics,
		); err != nil {
			return nil, fmt.Errorf("scan decision point: %w", err)
		}

		ts, err := parseTime(timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		dp.Timestamp = ts
		dp.Outcome = models.Outcome(outcome)

		if secondaries.Valid && secondaries.String != "" {
			if err := json.Unmarshal([]byte(secondaries.String), &dp.SecondaryWorkerIDs); err != nil {
				return nil, fmt.Errorf("unmarshal secondaries: %w", err)
			}
		}
		if initialCtx.Valid && initialCtx.String != "" {
			if err := json.Unmarshal([]byte(initialCtx.String), &dp.InitialContext); err != nil {
				return nil, fmt.Errorf("unmarshal context: %w", err)
			}
		}
		if metrics.Valid && metrics.String != "" && metrics.String != "null" {
			if err := json.Unmarshal([]byte(metrics.String), &dp.SuccessMetrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics: %w", err)
			}
		}

		out = append(out, dp)
	}
	return out, rows.Err()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
