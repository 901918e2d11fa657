package memory

import (
	"context"
	"errors"
	"time"
)

// Category is the coarse classification assigned to a record at creation.
type Category string

const (
	CategoryPersonal    Category = "personal"
	CategoryPreferences Category = "preferences"
	CategoryEmotional   Category = "emotional"
	CategoryContext     Category = "context"
	CategoryGeneral     Category = "general"
)

// Record stores a single remembered fact extracted from conversation.
// Records are immutable once written; forgetting is deletion, never edit.
type Record struct {
	ID        int64     `json:"id"`
	Trigger   string    `json:"trigger"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrInvalidLimit is returned by Recent when limit is not positive.
var ErrInvalidLimit = errors.New("limit must be positive")

// Store persists and retrieves categorized conversational memory.
//
// Recent returns up to limit records whose age is within the relevance
// window, strictly newest-first. Relevance is recomputed at read time; reads
// never delete. Sweep is the only operation that removes expired records.
type Store interface {
	Add(ctx context.Context, trigger, content string) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Sweep(ctx context.Context) error
	Close() error
}
