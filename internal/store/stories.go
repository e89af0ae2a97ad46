package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
	"github.com/bhdoggett/git-story-sub000/internal/models"
)

// CreateStory persists a story together with its chapters and parsed commits
// in a single transaction. Either everything lands or nothing does.
func (s *Store) CreateStory(story *models.Story, chapters []models.Chapter, records []gitlog.CommitRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var parseErrors sql.NullString
	if len(story.ParseIssues) > 0 {
		data, err := json.Marshal(story.ParseIssues)
		if err != nil {
			return fmt.Errorf("failed to marshal parse errors: %w", err)
		}
		parseErrors = sql.NullString{String: string(data), Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO stories (id, title, repo_url, style, log_hash, total_commits, parsed_commits, chapter_count, parse_errors, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID, story.Title,
		sql.NullString{String: story.RepoURL, Valid: story.RepoURL != ""},
		story.Style, story.LogHash,
		story.TotalCommits, story.ParsedCommits, story.ChapterCount,
		parseErrors,
		story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chapters (id, story_id, position, title, summary, first_commit, last_commit)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chapters {
		if _, err := stmt.Exec(ch.ID, story.ID, ch.Position, ch.Title, ch.Summary, ch.First, ch.Last); err != nil {
			return fmt.Errorf("failed to insert chapter %d: %w", ch.Position, err)
		}
	}

	if err := insertCommits(tx, story.ID, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetStory retrieves a story by ID
func (s *Store) GetStory(id string) (*models.Story, error) {
	var story models.Story
	var repoURL, parseErrors sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRow(`
		SELECT id, title, repo_url, style, log_hash, total_commits, parsed_commits, chapter_count, parse_errors, created_at, updated_at
		FROM stories WHERE id = ?`, id).Scan(
		&story.ID, &story.Title, &repoURL, &story.Style, &story.LogHash,
		&story.TotalCommits, &story.ParsedCommits, &story.ChapterCount,
		&parseErrors, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if repoURL.Valid {
		story.RepoURL = repoURL.String
	}
	if err := scanParseIssues(parseErrors, &story); err != nil {
		return nil, err
	}
	story.CreatedAt = parseTimestamp(createdAt)
	story.UpdatedAt = parseTimestamp(updatedAt)

	return &story, nil
}

// ListStories returns all stories, newest first
func (s *Store) ListStories() ([]*models.Story, error) {
	rows, err := s.db.Query(`
		SELECT id, title, repo_url, style, log_hash, total_commits, parsed_commits, chapter_count, parse_errors, created_at, updated_at
		FROM stories
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		var story models.Story
		var repoURL, parseErrors sql.NullString
		var createdAt, updatedAt string

		err := rows.Scan(
			&story.ID, &story.Title, &repoURL, &story.Style, &story.LogHash,
			&story.TotalCommits, &story.ParsedCommits, &story.ChapterCount,
			&parseErrors, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, err
		}

		if repoURL.Valid {
			story.RepoURL = repoURL.String
		}
		if err := scanParseIssues(parseErrors, &story); err != nil {
			return nil, err
		}
		story.CreatedAt = parseTimestamp(createdAt)
		story.UpdatedAt = parseTimestamp(updatedAt)

		stories = append(stories, &story)
	}

	return stories, rows.Err()
}

// scanParseIssues decodes the parse_errors JSON column into the story
func scanParseIssues(col sql.NullString, story *models.Story) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), &story.ParseIssues); err != nil {
		return fmt.Errorf("failed to unmarshal parse errors for story %s: %w", story.ID, err)
	}
	return nil
}

// DeleteStory removes a story and everything hanging off it
func (s *Store) DeleteStory(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM story_commits WHERE story_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM chapters WHERE story_id = ?", id); err != nil {
		return err
	}

	res, err := tx.Exec("DELETE FROM stories WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// CountStoriesByLogHash returns how many stories reference an archived log.
// Used to decide when the archived upload itself can be garbage collected.
func (s *Store) CountStoriesByLogHash(hash string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM stories WHERE log_hash = ?", hash).Scan(&count)
	return count, err
}
