package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

// Event timestamps are persisted as unix nanoseconds so range predicates
// stay integer comparisons.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS signal_readings (
	id               TEXT PRIMARY KEY,
	agent            TEXT NOT NULL,
	state            TEXT NOT NULL,
	strength         REAL NOT NULL,
	timestamp        INTEGER NOT NULL,
	context          TEXT,
	received_at      INTEGER NOT NULL,
	evaluated        INTEGER NOT NULL DEFAULT 0,
	variance_percent REAL NOT NULL DEFAULT 0,
	severity         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_readings_agent_ts ON signal_readings(agent, timestamp);
CREATE INDEX IF NOT EXISTS idx_readings_ts ON signal_readings(timestamp);

CREATE TABLE IF NOT EXISTS anomaly_records (
	id               TEXT PRIMARY KEY,
	agent            TEXT NOT NULL,
	reading_id       TEXT NOT NULL,
	variance_percent REAL NOT NULL,
	severity         TEXT NOT NULL,
	baseline_value   REAL NOT NULL,
	detected_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anomalies_agent_detected ON anomaly_records(agent, detected_at);
`

// SQLiteStore implements Store on a SQLite database via the pure-Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path and applies
// the schema. WAL keeps concurrent readers off the writer's lock.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// AppendReading inserts the reading and its optional anomaly in one
// transaction, so the pair commits or rolls back together.
func (s *SQLiteStore) AppendReading(ctx context.Context, r model.SignalReading, a *model.AnomalyRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var contextJSON sql.NullString
	if len(r.Context) > 0 {
		raw, err := json.Marshal(r.Context)
		if err != nil {
			return fmt.Errorf("encode context: %w", err)
		}
		contextJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO signal_readings
			(id, agent, state, strength, timestamp, context, received_at, evaluated, variance_percent, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Agent, string(r.State), r.Strength, r.Timestamp.UnixNano(),
		contextJSON, r.ReceivedAt.UnixNano(), boolToInt(r.Evaluated), r.VariancePercent, string(r.Severity),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}

	if a != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO anomaly_records
				(id, agent, reading_id, variance_percent, severity, baseline_value, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Agent, a.ReadingID, a.VariancePercent, string(a.Severity), a.BaselineValue, a.DetectedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// ReadingsBetween returns in-range readings newest-first.
func (s *SQLiteStore) ReadingsBetween(ctx context.Context, agent string, from, to time.Time, limit int) ([]model.SignalReading, error) {
	query := `
		SELECT id, agent, state, strength, timestamp, context, received_at, evaluated, variance_percent, severity
		FROM signal_readings
		WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{from.UnixNano(), to.UnixNano()}
	if agent != "" {
		query += " AND agent = ?"
		args = append(args, agent)
	}
	// received_at breaks event-timestamp ties so "latest" is well defined.
	query += " ORDER BY timestamp DESC, received_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []model.SignalReading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

func scanReading(rows *sql.Rows) (model.SignalReading, error) {
	var (
		r           model.SignalReading
		state       string
		severity    string
		ts, rcv     int64
		evaluated   int
		contextJSON sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.Agent, &state, &r.Strength, &ts, &contextJSON, &rcv, &evaluated, &r.VariancePercent, &severity); err != nil {
		return model.SignalReading{}, fmt.Errorf("scan reading: %w", err)
	}
	r.State = types.AgentState(state)
	r.Severity = types.Severity(severity)
	r.Timestamp = time.Unix(0, ts).UTC()
	r.ReceivedAt = time.Unix(0, rcv).UTC()
	r.Evaluated = evaluated != 0
	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &r.Context); err != nil {
			return model.SignalReading{}, fmt.Errorf("decode context: %w", err)
		}
	}
	return r, nil
}

// Agents returns agents with at least one reading, sorted.
func (s *SQLiteStore) Agents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT agent FROM signal_readings ORDER BY agent")
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var agent string
		if err := rows.Scan(&agent); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// AnomaliesSince returns anomalies detected at or after from, newest-first.
func (s *SQLiteStore) AnomaliesSince(ctx context.Context, agent string, from time.Time) ([]model.AnomalyRecord, error) {
	query := `
		SELECT id, agent, reading_id, variance_percent, severity, baseline_value, detected_at
		FROM anomaly_records
		WHERE detected_at >= ?`
	args := []any{from.UnixNano()}
	if agent != "" {
		query += " AND agent = ?"
		args = append(args, agent)
	}
	query += " ORDER BY detected_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var out []model.AnomalyRecord
	for rows.Next() {
		var (
			a        model.AnomalyRecord
			severity string
			detected int64
		)
		if err := rows.Scan(&a.ID, &a.Agent, &a.ReadingID, &a.VariancePercent, &severity, &a.BaselineValue, &detected); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		a.Severity = types.Severity(severity)
		a.DetectedAt = time.Unix(0, detected).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomalies: %w", err)
	}
	return out, nil
}

// CountReadings returns the total number of stored readings.
func (s *SQLiteStore) CountReadings(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM signal_readings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
