package testutil

import (
	"path/filepath"
	"testing"

	"w4-go/internal/journal"
	"w4-go/internal/w4"
)

// NewTestJournal creates a file journal in a fresh temp directory.
func NewTestJournal(t *testing.T) *journal.FileJournal {
	t.Helper()
	return journal.NewFileJournal(filepath.Join(t.TempDir(), "upload-history.json"), w4.NewNopLogger())
}
