package memory

// Entry binds a trigger phrase to the category its matches are filed under.
type Entry struct {
	Trigger  string
	Category Category
}

// Table is an ordered, immutable trigger phrase to category mapping, loaded
// once at startup. Order matters: the matcher scans entries in table order
// and stops at the first hit, so an utterance naming two triggers resolves
// deterministically.
type Table struct {
	entries []Entry
	index   map[string]Category
}

// NewTable builds a Table from entries, preserving their order. Duplicate
// trigger phrases keep the first entry's category.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]Category, len(entries)),
	}
	for _, e := range entries {
		if _, seen := t.index[e.Trigger]; seen {
			continue
		}
		t.entries = append(t.entries, e)
		t.index[e.Trigger] = e.Category
	}
	return t
}

// DefaultTable returns the stock trigger set.
func DefaultTable() *Table {
	return NewTable([]Entry{
		{"name", CategoryPersonal},
		{"birthday", CategoryPersonal},
		{"favorite food", CategoryPreferences},
		{"hobby", CategoryPreferences},
		{"favorite color", CategoryPreferences},
		{"user mood", CategoryEmotional},
		{"last conversation topic", CategoryContext},
		{"last joke", CategoryContext},
		{"last reminder", CategoryContext},
		{"last question", CategoryContext},
		{"work info", CategoryContext},
		{"health status", CategoryPersonal},
		{"recent event", CategoryContext},
		{"plans", CategoryContext},
		{"favorite music", CategoryPreferences},
		{"favorite anime", CategoryPreferences},
		{"relationship status", CategoryPersonal},
		{"pet name", CategoryPersonal},
		{"current weather comment", CategoryContext},
		{"favorite movie", CategoryPreferences},
	})
}

// CategoryFor returns the mapped category for a trigger phrase. Lookup is
// exact and case-sensitive as stored; unmapped triggers fall into general.
func (t *Table) CategoryFor(trigger string) Category {
	if c, ok := t.index[trigger]; ok {
		return c
	}
	return CategoryGeneral
}

// Entries returns the table's entries in scan order. The returned slice must
// not be modified.
func (t *Table) Entries() []Entry { return t.entries }

// Len reports the number of distinct trigger phrases.
func (t *Table) Len() int { return len(t.entries) }
