package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ripple/recording"
)

// SQLiteBackend stores one row per recording, events as a JSON column
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS recordings (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		duration REAL NOT NULL,
		preset TEXT NOT NULL DEFAULT '',
		events TEXT NOT NULL
	);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load() ([]recording.Recording, error) {
	rows, err := b.db.Query("SELECT id, name, duration, preset, events FROM recordings ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []recording.Recording{}
	for rows.Next() {
		var rec recording.Recording
		var events string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Duration, &rec.Preset, &events); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(events), &rec.Events); err != nil {
			return nil, fmt.Errorf("recording %d: %w", rec.ID, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (b *SQLiteBackend) Put(rec recording.Recording) error {
	events := rec.Events
	if events == nil {
		events = []recording.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(`
		INSERT OR REPLACE INTO recordings (id, name, duration, preset, events)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Duration, rec.Preset, string(data))
	return err
}

func (b *SQLiteBackend) Delete(id int64) error {
	_, err := b.db.Exec("DELETE FROM recordings WHERE id = ?", id)
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
