package memory

import (
	"context"
	"fmt"
	"strings"
)

// Composer renders recent memories into advisory context text for the
// outgoing prompt. Output length is unbounded in bytes: record content is
// free text, so embedding callers must accept any length.
type Composer struct {
	store Store
	limit int
}

func NewComposer(store Store, limit int) *Composer {
	if limit <= 0 {
		limit = 10
	}
	return &Composer{store: store, limit: limit}
}

// Compose returns one "[category] trigger: content" line per relevant
// record, newline-joined, newest-first. No relevant memories yields an empty
// string, not an error.
func (c *Composer) Compose(ctx context.Context) (string, error) {
	records, err := c.store.Recent(ctx, c.limit)
	if err != nil {
		return "", fmt.Errorf("recent memories: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", r.Category, r.Trigger, r.Content))
	}
	return strings.Join(lines, "\n"), nil
}
