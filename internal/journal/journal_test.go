package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"w4-go/internal/config"
	"w4-go/internal/w4"
)

func entry(i int) w4.HistoryEntry {
	return w4.HistoryEntry{
		Timestamp: fmt.Sprintf("2025-03-01T09:00:%02d.000Z", i%60),
		FileName:  fmt.Sprintf("c%d.json", i),
		ID:        fmt.Sprintf("tx%d", i),
		URL:       fmt.Sprintf("https://gateway.example/tx%d", i),
		SizeLabel: "0.01 KB",
		Tags:      w4.Tags{{Name: "Content-Type", Value: "application/json"}, {Name: "Version", Value: "0.1.0"}},
	}
}

// runJournalTests checks the behavior every backend shares.
func runJournalTests(t *testing.T, newJournal func(t *testing.T) w4.Journal) {
	t.Run("empty journal loads as empty", func(t *testing.T) {
		j := newJournal(t)
		entries, err := j.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("Load() = %v, want empty non-nil", entries)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		j := newJournal(t)
		for i := 1; i <= 3; i++ {
			if err := j.Record(entry(i)); err != nil {
				t.Fatalf("Record(%d) error = %v", i, err)
			}
		}

		entries, err := j.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("len = %d, want 3", len(entries))
		}
		for i, want := range []string{"tx3", "tx2", "tx1"} {
			if entries[i].ID != want {
				t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].ID, want)
			}
		}
		if v, _ := entries[0].Tags.Get("Version"); v != "0.1.0" {
			t.Errorf("tags not kept: %+v", entries[0].Tags)
		}
		if entries[0].URL != "https://gateway.example/tx3" || entries[0].SizeLabel != "0.01 KB" {
			t.Errorf("entry fields not kept: %+v", entries[0])
		}
	})

	t.Run("capped at the maximum", func(t *testing.T) {
		j := newJournal(t)
		total := w4.MaxHistoryEntries + 3
		for i := 0; i < total; i++ {
			if err := j.Record(entry(i)); err != nil {
				t.Fatalf("Record(%d) error = %v", i, err)
			}
		}

		entries, _ := j.Load()
		if len(entries) != w4.MaxHistoryEntries {
			t.Fatalf("len = %d, want %d", len(entries), w4.MaxHistoryEntries)
		}
		if entries[0].ID != fmt.Sprintf("tx%d", total-1) {
			t.Errorf("newest = %q", entries[0].ID)
		}
		if entries[len(entries)-1].ID != "tx3" {
			t.Errorf("oldest kept = %q, want tx3", entries[len(entries)-1].ID)
		}
	})
}

func TestFileJournal(t *testing.T) {
	runJournalTests(t, func(t *testing.T) w4.Journal {
		return NewFileJournal(filepath.Join(t.TempDir(), "upload-history.json"), w4.NewNopLogger())
	})

	t.Run("corrupt file is treated as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "upload-history.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		j := NewFileJournal(path, w4.NewNopLogger())

		entries, err := j.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("len = %d, want 0", len(entries))
		}

		if err := j.Record(entry(1)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		entries, _ = j.Load()
		if len(entries) != 1 {
			t.Errorf("len after Record = %d, want 1", len(entries))
		}
	})

	t.Run("file uses the upload history keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "upload-history.json")
		j := NewFileJournal(path, w4.NewNopLogger())
		if err := j.Record(entry(1)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		for _, key := range []string{`"timestamp"`, `"file"`, `"txid"`, `"url"`, `"size"`, `"tags"`} {
			if !strings.Contains(string(data), key) {
				t.Errorf("history file missing key %s:\n%s", key, data)
			}
		}
	})
}

func TestSQLiteJournal(t *testing.T) {
	runJournalTests(t, func(t *testing.T) w4.Journal {
		j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "history.db"), w4.NewNopLogger())
		if err != nil {
			t.Fatalf("NewSQLiteJournal() error = %v", err)
		}
		t.Cleanup(func() { j.Close() })
		return j
	})

	t.Run("reopening keeps entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.db")
		j, err := NewSQLiteJournal(path, w4.NewNopLogger())
		if err != nil {
			t.Fatalf("NewSQLiteJournal() error = %v", err)
		}
		j.Record(entry(1))
		j.Close()

		reopened, err := NewSQLiteJournal(path, w4.NewNopLogger())
		if err != nil {
			t.Fatalf("NewSQLiteJournal() reopen error = %v", err)
		}
		defer reopened.Close()
		entries, _ := reopened.Load()
		if len(entries) != 1 || entries[0].ID != "tx1" {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("corrupt database is treated as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.db")
		garbage := []byte("this is not a sqlite database, just some text padding it out")
		if err := os.WriteFile(path, garbage, 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		j, err := NewSQLiteJournal(path, w4.NewNopLogger())
		if err != nil {
			t.Fatalf("NewSQLiteJournal() error = %v", err)
		}
		defer j.Close()

		entries, err := j.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("entries = %+v, want none", entries)
		}
		if err := j.Record(entry(1)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		entries, _ = j.Load()
		if len(entries) != 1 || entries[0].ID != "tx1" {
			t.Errorf("entries = %+v", entries)
		}

		moved, err := os.ReadFile(path + ".corrupt")
		if err != nil {
			t.Fatalf("ReadFile(.corrupt) error = %v", err)
		}
		if string(moved) != string(garbage) {
			t.Errorf("moved file = %q, want original contents", moved)
		}
	})

	t.Run("entry with unreadable tags loads without tags", func(t *testing.T) {
		j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "history.db"), w4.NewNopLogger())
		if err != nil {
			t.Fatalf("NewSQLiteJournal() error = %v", err)
		}
		defer j.Close()

		if err := j.Record(entry(1)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if _, err := j.db.Exec(`UPDATE history SET tags = 'not json' WHERE tx_id = 'tx1'`); err != nil {
			t.Fatalf("Exec() error = %v", err)
		}
		if err := j.Record(entry(2)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}

		entries, err := j.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("entries = %d, want 2", len(entries))
		}
		if entries[1].ID != "tx1" || len(entries[1].Tags) != 0 {
			t.Errorf("entries[1] = %+v, want tx1 without tags", entries[1])
		}
		if entries[0].ID != "tx2" || len(entries[0].Tags) == 0 {
			t.Errorf("entries[0] = %+v, want tx2 with tags", entries[0])
		}
	})
}

func TestMemoryJournal(t *testing.T) {
	runJournalTests(t, func(t *testing.T) w4.Journal {
		return NewMemoryJournal()
	})
}

func TestNewJournalFromConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.JournalConfig
		want    string
		wantErr bool
	}{
		{"file", config.JournalConfig{Type: "file", Path: filepath.Join(dir, "h.json")}, "*journal.FileJournal", false},
		{"default is file", config.JournalConfig{Path: filepath.Join(dir, "h.json")}, "*journal.FileJournal", false},
		{"file without path", config.JournalConfig{Type: "file"}, "", true},
		{"sqlite", config.JournalConfig{Type: "sqlite", DataDir: dir}, "*journal.SQLiteJournal", false},
		{"sqlite without data dir", config.JournalConfig{Type: "sqlite"}, "", true},
		{"s3", config.JournalConfig{Type: "s3", Bucket: "history", Region: "us-east-1"}, "*journal.S3Journal", false},
		{"s3 without bucket", config.JournalConfig{Type: "s3"}, "", true},
		{"memory", config.JournalConfig{Type: "memory"}, "*journal.MemoryJournal", false},
		{"unknown", config.JournalConfig{Type: "etcd"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := NewJournalFromConfig(tt.cfg, w4.NewNopLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewJournalFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s, ok := j.(*SQLiteJournal); ok {
				t.Cleanup(func() { s.Close() })
			}
			if got := fmt.Sprintf("%T", j); got != tt.want {
				t.Errorf("type = %s, want %s", got, tt.want)
			}
		})
	}
}
