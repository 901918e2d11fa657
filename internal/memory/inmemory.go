package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
// It honors the same relevance-window semantics as the durable backends but
// does not survive a restart.
type InMemoryStore struct {
	mu          sync.RWMutex
	records     []Record
	nextID      int64
	table       *Table
	forgetAfter time.Duration
	now         func() time.Time
}

func NewInMemoryStore(table *Table, forgetAfter time.Duration) *InMemoryStore {
	return &InMemoryStore{
		nextID:      1,
		table:       table,
		forgetAfter: forgetAfter,
		now:         time.Now,
	}
}

func (s *InMemoryStore) Add(_ context.Context, trigger, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, Record{
		ID:        s.nextID,
		Trigger:   trigger,
		Content:   content,
		Category:  s.table.CategoryFor(trigger),
		CreatedAt: s.now().UTC(),
	})
	s.nextID++
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	cutoff := s.now().Add(-s.forgetAfter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, limit)
	for _, r := range s.records {
		if r.CreatedAt.After(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Sweep(_ context.Context) error {
	cutoff := s.now().Add(-s.forgetAfter)

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, r := range s.records {
		if !r.CreatedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
