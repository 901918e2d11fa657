package memory

import (
	"context"
	"strings"
	"time"
)

// NewStore creates a postgres-backed store when a database URL is
// configured, otherwise a SQLite store at path.
func NewStore(ctx context.Context, databaseURL, path string, table *Table, forgetAfter time.Duration) (Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL, table, forgetAfter)
	}
	return NewSQLiteStore(path, table, forgetAfter)
}
