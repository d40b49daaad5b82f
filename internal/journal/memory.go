package journal

import (
	"sync"

	"w4-go/internal/w4"
)

// MemoryJournal is an in-memory w4.Journal, useful for testing.
// This implementation is safe for concurrent use.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []w4.HistoryEntry
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(entry w4.HistoryEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = w4.PrependBounded(j.entries, entry, w4.MaxHistoryEntries)
	return nil
}

func (j *MemoryJournal) Load() ([]w4.HistoryEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]w4.HistoryEntry{}, j.entries...), nil
}

// Compile-time check that MemoryJournal implements w4.Journal interface
var _ w4.Journal = (*MemoryJournal)(nil)
