package store

import (
	"database/sql"

	"github.com/bhdoggett/git-story-sub000/internal/models"
)

// ListChapters returns a story's chapters ordered by position
func (s *Store) ListChapters(storyID string) ([]models.Chapter, error) {
	rows, err := s.db.Query(`
		SELECT id, story_id, position, title, summary, first_commit, last_commit
		FROM chapters
		WHERE story_id = ?
		ORDER BY position`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var ch models.Chapter
		var summary sql.NullString

		err := rows.Scan(&ch.ID, &ch.StoryID, &ch.Position, &ch.Title, &summary, &ch.First, &ch.Last)
		if err != nil {
			return nil, err
		}

		if summary.Valid {
			ch.Summary = summary.String
		}

		chapters = append(chapters, ch)
	}

	return chapters, rows.Err()
}
