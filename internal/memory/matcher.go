package memory

import (
	"context"
	"strings"
)

// Matcher scans utterances for known trigger phrases and records the first
// hit. First-match-wins keeps each utterance attributable to a single
// salient fact: an utterance naming two triggers records only the one that
// appears first in table order.
type Matcher struct {
	table *Table
	store Store
}

func NewMatcher(table *Table, store Store) *Matcher {
	return &Matcher{table: table, store: store}
}

// Table exposes the trigger table the matcher scans with.
func (m *Matcher) Table() *Table { return m.table }

// Scan lowercases the utterance and tests substring containment for each
// trigger in table order. On the first match it records the original
// (unnormalized) utterance under that trigger and stops, so at most one
// record is written per utterance.
//
// Scan returns the matched trigger, or "" when nothing matched. A non-nil
// error means the match was found but could not be persisted; callers must
// treat that as non-fatal and continue their turn.
func (m *Matcher) Scan(ctx context.Context, utterance string) (string, error) {
	if utterance == "" {
		return "", nil
	}
	normalized := strings.ToLower(utterance)
	for _, e := range m.table.Entries() {
		if strings.Contains(normalized, e.Trigger) {
			if err := m.store.Add(ctx, e.Trigger, utterance); err != nil {
				return e.Trigger, err
			}
			return e.Trigger, nil
		}
	}
	return "", nil
}
