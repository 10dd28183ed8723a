// Package history records benchmark results in a SQL database so runs can
// be compared across builds and machines.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/tailcall/bench"
)

var log = commonlog.GetLogger("tailcall.history")

// ErrNotFound is returned when no recorded run matches a lookup.
var ErrNotFound = errors.New("history: run not found")

var schema = []string{`
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   BIGINT NOT NULL,
	mode         TEXT NOT NULL,
	size         BIGINT NOT NULL,
	loops        BIGINT NOT NULL,
	instructions BIGINT NOT NULL,
	elapsed_ns   BIGINT NOT NULL,
	fault        TEXT NOT NULL,
	payload      BLOB NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS runs_shape ON runs (mode, size, loops)`,
}

// Store is a run history backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the schema if needed.
// driver is "sqlite" (always available) or "duckdb" (cgo builds only).
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", driver, err)
	}
	// One connection keeps in-memory databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: create schema: %w", err)
		}
	}
	log.Debug("history opened", "driver", driver, "dsn", dsn)
	return &Store{db: db, driver: driver}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Record stores r. Recording the same ID twice is an error.
func (s *Store) Record(ctx context.Context, r *bench.Result) error {
	payload, err := bench.MarshalResult(r)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", r.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, mode, size, loops, instructions, elapsed_ns, fault, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixNano(), r.Spec.Mode, r.Spec.Size, r.Spec.Loops,
		int64(r.Instructions), r.Elapsed.Nanoseconds(), r.Fault, payload)
	if err != nil {
		return fmt.Errorf("history: record %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*bench.Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("history: get %s: %w", id, err)
	}
	return bench.UnmarshalResult(payload)
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Mode  string
	Size  int
	Loops int
	Limit int
}

// List returns matching runs, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*bench.Result, error) {
	query := `SELECT payload FROM runs WHERE 1 = 1`
	var args []any
	if f.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, f.Mode)
	}
	if f.Size > 0 {
		query += ` AND size = ?`
		args = append(args, f.Size)
	}
	if f.Loops > 0 {
		query += ` AND loops = ?`
		args = append(args, f.Loops)
	}
	query += ` ORDER BY started_at DESC, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}
	return s.query(ctx, query, args...)
}

// Best returns the successful run with the highest throughput for the
// given mode and program shape.
func (s *Store) Best(ctx context.Context, mode string, size, loops int) (*bench.Result, error) {
	rs, err := s.query(ctx,
		`SELECT payload FROM runs
		 WHERE mode = ? AND size = ? AND loops = ? AND fault = '' AND elapsed_ns > 0
		 ORDER BY CAST(instructions AS DOUBLE) / elapsed_ns DESC
		 LIMIT 1`,
		mode, size, loops)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("%w: no %s run with size %d loops %d", ErrNotFound, mode, size, loops)
	}
	return rs[0], nil
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*bench.Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []*bench.Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r, err := bench.UnmarshalResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	return out, nil
}
