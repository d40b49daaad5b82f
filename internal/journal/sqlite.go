package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"w4-go/internal/journal/migrations"
	"w4-go/internal/w4"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal keeps the publish history in a SQLite table. Each Record
// inserts one row and prunes everything beyond the newest
// w4.MaxHistoryEntries in the same transaction.
type SQLiteJournal struct {
	db     *sql.DB
	logger w4.Logger
}

// NewSQLiteJournal opens (creating if needed) the journal database at path and
// migrates it to the latest schema. path can be ":memory:".
//
// A file that cannot be opened as a journal is moved to path+".corrupt" and
// replaced by an empty journal.
func NewSQLiteJournal(path string, logger w4.Logger) (*SQLiteJournal, error) {
	if path == ":memory:" {
		db, err := openJournalDB(path)
		if err != nil {
			return nil, err
		}
		return &SQLiteJournal{db: db, logger: logger}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := openJournalDB(path)
	if err == nil {
		return &SQLiteJournal{db: db, logger: logger}, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}

	aside := path + ".corrupt"
	logger.Warn("history database unreadable, starting a new one", "path", path, "moved_to", aside, "error", err)
	if err := os.Rename(path, aside); err != nil {
		return nil, fmt.Errorf("moving unreadable journal aside: %w", err)
	}
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		os.Remove(path + suffix)
	}

	db, err = openJournalDB(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteJournal{db: db, logger: logger}, nil
}

func openJournalDB(path string) (*sql.DB, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema out of date: %w", err)
	}
	return db, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (j *SQLiteJournal) Record(entry w4.HistoryEntry) error {
	ctx := context.Background()

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history (timestamp, file_name, tx_id, url, size_label, tags) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.FileName, entry.ID, entry.URL, entry.SizeLabel, string(tags),
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM history WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`,
		w4.MaxHistoryEntries,
	)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history entry: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Load() ([]w4.HistoryEntry, error) {
	rows, err := j.db.QueryContext(context.Background(),
		`SELECT timestamp, file_name, tx_id, url, size_label, tags FROM history ORDER BY seq DESC LIMIT ?`,
		w4.MaxHistoryEntries,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []w4.HistoryEntry{}
	for rows.Next() {
		var e w4.HistoryEntry
		var tags string
		if err := rows.Scan(&e.Timestamp, &e.FileName, &e.ID, &e.URL, &e.SizeLabel, &tags); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			j.logger.Warn("history entry has unreadable tags", "txid", e.ID, "error", err)
			e.Tags = nil
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Compile-time check that SQLiteJournal implements w4.Journal interface
var _ w4.Journal = (*SQLiteJournal)(nil)
