package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversational memory in PostgreSQL. It mirrors the
// SQLite schema and contract for deployments that already run a database.
type PostgresStore struct {
	pool        *pgxpool.Pool
	table       *Table
	forgetAfter time.Duration
	now         func() time.Time
}

func NewPostgresStore(ctx context.Context, databaseURL string, table *Table, forgetAfter time.Duration) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS memories (
		id BIGSERIAL PRIMARY KEY,
		"trigger" TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp DOUBLE PRECISION,
		category TEXT
	)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresStore{
		pool:        pool,
		table:       table,
		forgetAfter: forgetAfter,
		now:         time.Now,
	}, nil
}

func (s *PostgresStore) Add(ctx context.Context, trigger, content string) error {
	category := s.table.CategoryFor(trigger)
	ts := unixSeconds(s.now())

	_, err := s.pool.Exec(ctx,
		`INSERT INTO memories ("trigger", content, timestamp, category) VALUES ($1, $2, $3, $4)`,
		trigger, content, ts, string(category),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	cutoff := unixSeconds(s.now()) - s.forgetAfter.Seconds()

	rows, err := s.pool.Query(ctx,
		`SELECT id, "trigger", content, timestamp, category FROM memories
		 WHERE timestamp > $1 ORDER BY timestamp DESC, id DESC LIMIT $2`,
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

func (s *PostgresStore) Sweep(ctx context.Context) error {
	cutoff := unixSeconds(s.now()) - s.forgetAfter.Seconds()
	if _, err := s.pool.Exec(ctx, `DELETE FROM memories WHERE timestamp < $1`, cutoff); err != nil {
		return fmt.Errorf("sweep memories: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
