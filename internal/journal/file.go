package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"w4-go/internal/w4"
)

// FileJournal keeps the publish history as a JSON array in a single file,
// newest first. Each Record rewrites the whole file; there is no locking and
// no crash-safety guarantee.
type FileJournal struct {
	path   string
	logger w4.Logger
}

// NewFileJournal creates a journal backed by path. The file is created on
// the first Record.
func NewFileJournal(path string, logger w4.Logger) *FileJournal {
	return &FileJournal{path: path, logger: logger}
}

// Path returns the backing file.
func (j *FileJournal) Path() string {
	return j.path
}

// Record prepends entry and truncates the journal to w4.MaxHistoryEntries.
// A missing or corrupt file is treated as an empty journal.
func (j *FileJournal) Record(entry w4.HistoryEntry) error {
	entries, err := j.read()
	if err != nil {
		return err
	}

	entries = w4.PrependBounded(entries, entry, w4.MaxHistoryEntries)

	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	if err := os.WriteFile(j.path, data, 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}

	j.logger.Debug("history recorded", "path", j.path, "entries", len(entries))
	return nil
}

// Load returns the recorded entries, newest first.
func (j *FileJournal) Load() ([]w4.HistoryEntry, error) {
	entries, err := j.read()
	if err != nil {
		return nil, err
	}
	return capEntries(entries), nil
}

// read loads the file. Absence and corrupt content both yield an empty
// journal; only I/O failures other than absence are errors.
func (j *FileJournal) read() ([]w4.HistoryEntry, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []w4.HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return decodeEntries(data, j.logger, j.path), nil
}

func encodeEntries(entries []w4.HistoryEntry) ([]byte, error) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	return data, nil
}

// decodeEntries parses a history document. Corrupt content is logged and
// yields an empty journal.
func decodeEntries(data []byte, logger w4.Logger, where string) []w4.HistoryEntry {
	var entries []w4.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("history unreadable, starting a new one", "location", where, "error", err)
		return []w4.HistoryEntry{}
	}
	if entries == nil {
		entries = []w4.HistoryEntry{}
	}
	return entries
}

func capEntries(entries []w4.HistoryEntry) []w4.HistoryEntry {
	if len(entries) > w4.MaxHistoryEntries {
		return entries[:w4.MaxHistoryEntries]
	}
	return entries
}

// Compile-time check that FileJournal implements w4.Journal interface
var _ w4.Journal = (*FileJournal)(nil)
