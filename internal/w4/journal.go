package w4

// MaxHistoryEntries caps the publish journal.
const MaxHistoryEntries = 100

// HistoryEntry records one successful publish. Entries are never modified
// once recorded. The JSON keys match the upload-history.json format.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"` // ISO-8601, UTC, millisecond precision
	FileName  string `json:"file"`
	ID        string `json:"txid"`
	URL       string `json:"url"`
	SizeLabel string `json:"size"`
	Tags      Tags   `json:"tags"`
}

// Journal is the bounded, newest-first record of past publishes.
// The Publisher is its only writer.
type Journal interface {
	// Record prepends entry and truncates to MaxHistoryEntries.
	Record(entry HistoryEntry) error

	// Load returns at most MaxHistoryEntries entries, newest first.
	Load() ([]HistoryEntry, error)
}

// PrependBounded returns entry followed by entries, truncated to limit.
// The input slice is not modified.
func PrependBounded(entries []HistoryEntry, entry HistoryEntry, limit int) []HistoryEntry {
	n := len(entries) + 1
	if n > limit {
		n = limit
	}
	out := make([]HistoryEntry, 0, n)
	out = append(out, entry)
	for _, e := range entries {
		if len(out) == n {
			break
		}
		out = append(out, e)
	}
	return out
}
