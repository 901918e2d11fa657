package memory

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists conversational memory in a single local SQLite file.
// It is the default backend: durable across restarts with no external
// service to run.
type SQLiteStore struct {
	db          *sql.DB
	table       *Table
	forgetAfter time.Duration
	now         func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the memories table exists. forgetAfter bounds the relevance window.
func NewSQLiteStore(path string, table *Table, forgetAfter time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer at a time. A single shared connection lets
	// database/sql serialize callers instead of surfacing busy errors from
	// competing connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	// "trigger" is a reserved word in SQLite, so the column stays quoted.
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY,
		"trigger" TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp REAL,
		category TEXT
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{
		db:          db,
		table:       table,
		forgetAfter: forgetAfter,
		now:         time.Now,
	}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, trigger, content string) error {
	category := s.table.CategoryFor(trigger)
	ts := unixSeconds(s.now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories ("trigger", content, timestamp, category) VALUES (?, ?, ?, ?)`,
		trigger, content, ts, string(category),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	cutoff := unixSeconds(s.now()) - s.forgetAfter.Seconds()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, "trigger", content, timestamp, category FROM memories
		 WHERE timestamp > ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent memories: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var (
			r   Record
			ts  float64
			cat string
		)
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Content, &ts, &cat); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		r.CreatedAt = timeFromUnixSeconds(ts)
		r.Category = Category(cat)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Sweep(ctx context.Context) error {
	cutoff := unixSeconds(s.now()) - s.forgetAfter.Seconds()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("sweep memories: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Timestamps live in the database as fractional Unix seconds, which keeps
// the relevance comparison a plain numeric filter on every backend.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromUnixSeconds(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
