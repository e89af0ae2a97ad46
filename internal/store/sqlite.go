// Package store provides SQLite-based persistence for GitStory.
// It manages stories, their chapters, and the parsed commits behind them.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested story does not exist.
var ErrNotFound = errors.New("store: not found")

const schemaVersion = 1

// Store represents the SQLite database store
type Store struct {
	db *sql.DB
}

// New creates a new store connection
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema
func (s *Store) Initialize() error {
	schema := `
	-- Stories (one per uploaded git log)
	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		repo_url TEXT,
		style TEXT NOT NULL,
		log_hash TEXT NOT NULL,
		total_commits INTEGER NOT NULL,
		parsed_commits INTEGER NOT NULL,
		chapter_count INTEGER NOT NULL,
		parse_errors JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Chapters (ordered slices of a story's commit sequence)
	CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		story_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		summary TEXT,
		first_commit INTEGER NOT NULL,
		last_commit INTEGER NOT NULL,
		UNIQUE(story_id, position),
		FOREIGN KEY (story_id) REFERENCES stories(id)
	);

	-- Parsed commits, keyed by their position in the original log
	CREATE TABLE IF NOT EXISTS story_commits (
		story_id TEXT NOT NULL,
		record_index INTEGER NOT NULL,
		sha TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_email TEXT NOT NULL,
		author_date TEXT,
		message TEXT NOT NULL,
		body TEXT,
		files JSON,
		PRIMARY KEY (story_id, record_index),
		FOREIGN KEY (story_id) REFERENCES stories(id)
	);

	-- GitStory schema version tracking
	CREATE TABLE IF NOT EXISTS gitstory_schema_version (
		version INTEGER PRIMARY KEY
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_stories_log_hash ON stories(log_hash);
	CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at);
	CREATE INDEX IF NOT EXISTS idx_chapters_story ON chapters(story_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Mark as current schema version
	_, err = s.db.Exec("INSERT OR REPLACE INTO gitstory_schema_version (version) VALUES (?)", schemaVersion)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for advanced queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// parseTimestamp parses a timestamp string from SQLite in various formats
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999+07:00",
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05.999999+07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05+07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
