// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a log of completed conversions in SQLite so
// users can review what was converted, when, and how long it took.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kc9wwh/textwave/pkg/types"
)

const dbFile = "history.db"

// DefaultPath returns the history database location used when the
// configuration does not name one: <user config dir>/textwave/history.db.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(base, "textwave", dbFile), nil
}

// Record is one completed conversion.
type Record struct {
	ID          int64
	PDFPath     string
	OutputPath  string
	Chunks      int
	Characters  int
	Duration    time.Duration
	CompletedAt time.Time
}

// Store manages the conversion history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database named by the
// configuration, creating parent directories and the schema as needed.
// An empty path falls back to DefaultPath.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS conversions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pdf_path TEXT NOT NULL,
		output_path TEXT NOT NULL,
		chunks INTEGER NOT NULL,
		characters INTEGER NOT NULL,
		duration_seconds REAL NOT NULL,
		completed_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record appends one completed conversion.
func (s *Store) Record(pdfPath, outputPath string, chunks, characters int, duration time.Duration) error {
	_, err := s.db.Exec(
		`INSERT INTO conversions (pdf_path, output_path, chunks, characters, duration_seconds, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		pdfPath, outputPath, chunks, characters, duration.Seconds(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording conversion: %w", err)
	}
	return nil
}

// List returns the most recent conversions, newest first. A limit of
// zero or less returns the 20 most recent.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, pdf_path, output_path, chunks, characters, duration_seconds, completed_at
		 FROM conversions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var seconds float64
		var completed string
		if err := rows.Scan(&r.ID, &r.PDFPath, &r.OutputPath, &r.Chunks, &r.Characters, &seconds, &completed); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.Duration = time.Duration(seconds * float64(time.Second))
		if t, err := time.Parse(time.RFC3339, completed); err == nil {
			r.CompletedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
