// Copyright 2024 The courier Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gogama/courier/request"
	"github.com/gogama/courier/response"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("courier/history: record not found")

// A Record summarizes one execution.
type Record struct {
	ID          string
	Method      string
	URL         string
	Kind        string
	StatusCode  int
	Status      string
	SocketCode  string
	RequestCode string
	Cancelled   bool
	Elapsed     time.Duration
	Bytes       int
	Error       string
	Start       time.Time
}

// FromExecution builds a Record from an ended execution. The URL is
// redacted.
func FromExecution(e *request.Execution) *Record {
	r := e.Result
	rec := &Record{
		ID:         e.ID,
		Method:     e.Plan.Method,
		URL:        e.Plan.URL.Redacted(),
		Kind:       r.Kind.String(),
		StatusCode: r.StatusCode(),
		Status:     r.Status(),
		Cancelled:  r.Cancelled,
		Elapsed:    r.Elapsed,
		Bytes:      len(r.Body()),
		Start:      e.Start,
	}
	if r.Fault != nil {
		if r.Kind == response.SocketError {
			rec.SocketCode = r.Fault.Socket.String()
		}
		rec.RequestCode = r.Fault.Request.String()
		if r.Fault.Err != nil {
			rec.Error = r.Fault.Err.Error()
		}
	}
	return rec
}

// A Store persists Records in SQLite. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS executions (
		id           TEXT PRIMARY KEY,
		method       TEXT NOT NULL,
		url          TEXT NOT NULL,
		kind         TEXT NOT NULL,
		status_code  INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT '',
		socket_code  TEXT NOT NULL DEFAULT '',
		request_code TEXT NOT NULL DEFAULT '',
		cancelled    INTEGER NOT NULL DEFAULT 0,
		elapsed_ns   INTEGER NOT NULL,
		bytes        INTEGER NOT NULL DEFAULT 0,
		error        TEXT NOT NULL DEFAULT '',
		started_ns   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_executions_started ON executions(started_ns);
`

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("courier/history: open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("courier/history: ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("courier/history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save inserts rec, replacing any record with the same ID. A record
// with an empty ID is given a new one.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	const query = `
		INSERT OR REPLACE INTO executions
			(id, method, url, kind, status_code, status, socket_code, request_code,
			 cancelled, elapsed_ns, bytes, error, started_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Method,
		rec.URL,
		rec.Kind,
		rec.StatusCode,
		rec.Status,
		rec.SocketCode,
		rec.RequestCode,
		rec.Cancelled,
		int64(rec.Elapsed),
		rec.Bytes,
		rec.Error,
		rec.Start.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("courier/history: save record: %w", err)
	}
	return nil
}

const columns = `id, method, url, kind, status_code, status, socket_code, request_code,
	cancelled, elapsed_ns, bytes, error, started_ns`

// Get returns the record with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM executions WHERE id = ?`, id)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("courier/history: get record: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, most recently started first. A
// limit of zero or less returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM executions ORDER BY started_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("courier/history: list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("courier/history: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("courier/history: iterate records: %w", err)
	}
	return records, nil
}

// Prune deletes records which started before t and returns the number
// deleted.
func (s *Store) Prune(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM executions WHERE started_ns < ?`, t.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("courier/history: prune: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*Record, error) {
	var (
		rec       Record
		elapsed   int64
		startedNs int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.Method,
		&rec.URL,
		&rec.Kind,
		&rec.StatusCode,
		&rec.Status,
		&rec.SocketCode,
		&rec.RequestCode,
		&rec.Cancelled,
		&elapsed,
		&rec.Bytes,
		&rec.Error,
		&startedNs,
	)
	if err != nil {
		return nil, err
	}
	rec.Elapsed = time.Duration(elapsed)
	rec.Start = time.Unix(0, startedNs)
	return &rec, nil
}
