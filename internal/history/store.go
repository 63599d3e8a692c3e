package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the final state of a top-level input.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Input is one recorded top-level input.
type Input struct {
	ID        int64
	SessionID string
	Path      string
	Status    Status
	ErrorKind string
	Error     string
	Outputs   []string
	StartedAt time.Time
	Duration  time.Duration
	Units     []Unit
}

// Unit is one recorded work unit.
type Unit struct {
	Name     string
	State    string
	Degraded bool
	Error    string
	Outputs  []string
	Duration time.Duration
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts an input together with its units and returns the row id.
func (s *Store) Record(ctx context.Context, in Input) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("history store not open")
	}
	outputs, err := encodeList(in.Outputs)
	if err != nil {
		return 0, err
	}
	started := in.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO inputs (
            session_id, input_path, status, error_kind, error_message,
            outputs_json, started_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.SessionID,
		in.Path,
		string(in.Status),
		nullableString(in.ErrorKind),
		nullableString(in.Error),
		outputs,
		started.UTC().Format(time.RFC3339Nano),
		in.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert input: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, u := range in.Units {
		unitOutputs, err := encodeList(u.Outputs)
		if err != nil {
			return 0, err
		}
		degraded := 0
		if u.Degraded {
			degraded = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO units (input_id, name, state, degraded, error_message, outputs_json, duration_ms)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, u.Name, u.State, degraded, nullableString(u.Error), unitOutputs, u.Duration.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("insert unit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record: %w", err)
	}
	return id, nil
}

// Recent returns up to limit inputs, newest first, with their units.
func (s *Store) Recent(ctx context.Context, limit int) ([]Input, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, input_path, status, error_kind, error_message,
                outputs_json, started_at, duration_ms
         FROM inputs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query inputs: %w", err)
	}
	defer rows.Close()

	var inputs []Input
	for rows.Next() {
		var (
			in         Input
			status     string
			errorKind  sql.NullString
			errorMsg   sql.NullString
			outputs    sql.NullString
			startedRaw string
			durationMS int64
		)
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Path, &status, &errorKind, &errorMsg,
			&outputs, &startedRaw, &durationMS); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		in.Status = Status(status)
		in.ErrorKind = errorKind.String
		in.Error = errorMsg.String
		in.Outputs = decodeList(outputs)
		in.StartedAt, _ = time.Parse(time.RFC3339Nano, startedRaw)
		in.Duration = time.Duration(durationMS) * time.Millisecond
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inputs: %w", err)
	}
	rows.Close()

	for i := range inputs {
		units, err := s.units(ctx, inputs[i].ID)
		if err != nil {
			return nil, err
		}
		inputs[i].Units = units
	}
	return inputs, nil
}

func (s *Store) units(ctx context.Context, inputID int64) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, state, degraded, error_message, outputs_json, duration_ms
         FROM units WHERE input_id = ? ORDER BY id`, inputID)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var (
			u          Unit
			degraded   int
			errorMsg   sql.NullString
			outputs    sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&u.Name, &u.State, &degraded, &errorMsg, &outputs, &durationMS); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.Degraded = degraded != 0
		u.Error = errorMsg.String
		u.Outputs = decodeList(outputs)
		u.Duration = time.Duration(durationMS) * time.Millisecond
		units = append(units, u)
	}
	return units, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func encodeList(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil
	}
	return values
}
