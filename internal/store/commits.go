package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
)

// insertCommits inserts a story's parsed commits inside an open transaction,
// keyed by their position in the original log.
func insertCommits(tx *sql.Tx, storyID string, records []gitlog.CommitRecord) error {
	stmt, err := tx.Prepare(`
		INSERT INTO story_commits (story_id, record_index, sha, author_name, author_email, author_date, message, body, files)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var files sql.NullString
		if len(r.Files) > 0 {
			data, err := json.Marshal(r.Files)
			if err != nil {
				return fmt.Errorf("failed to marshal file stats for %s: %w", r.SHA, err)
			}
			files = sql.NullString{String: string(data), Valid: true}
		}

		_, err := stmt.Exec(
			storyID, i, r.SHA,
			r.Author.Name, r.Author.Email,
			sql.NullString{String: r.Date, Valid: r.Date != ""},
			r.Message,
			sql.NullString{String: r.Body, Valid: r.Body != ""},
			files,
		)
		if err != nil {
			return fmt.Errorf("failed to insert commit %s: %w", r.SHA, err)
		}
	}

	return nil
}

// ListCommits returns a page of a story's commits in original log order.
// A limit of 0 or less returns everything from offset onward.
func (s *Store) ListCommits(storyID string, offset, limit int) ([]gitlog.CommitRecord, error) {
	query := `
		SELECT sha, author_name, author_email, author_date, message, body, files
		FROM story_commits
		WHERE story_id = ?
		ORDER BY record_index`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		rows, err = s.db.Query(query, storyID, limit, offset)
	} else if offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		rows, err = s.db.Query(query, storyID, offset)
	} else {
		rows, err = s.db.Query(query, storyID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []gitlog.CommitRecord
	for rows.Next() {
		var r gitlog.CommitRecord
		var date, body, files sql.NullString

		err := rows.Scan(&r.SHA, &r.Author.Name, &r.Author.Email, &date, &r.Message, &body, &files)
		if err != nil {
			return nil, err
		}

		if date.Valid {
			r.Date = date.String
		}
		if body.Valid {
			r.Body = body.String
		}
		if files.Valid {
			if err := json.Unmarshal([]byte(files.String), &r.Files); err != nil {
				return nil, fmt.Errorf("failed to unmarshal file stats for %s: %w", r.SHA, err)
			}
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// CountCommits returns the number of stored commits for a story
func (s *Store) CountCommits(storyID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM story_commits WHERE story_id = ?", storyID).Scan(&count)
	return count, err
}
