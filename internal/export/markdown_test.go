package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
	"github.com/bhdoggett/git-story-sub000/internal/models"
)

func TestMarkdown_FullDocument(t *testing.T) {
	story := &models.Story{
		ID:            "s1",
		Title:         "The Parser Saga",
		RepoURL:       "https://github.com/example/parser",
		Style:         "epic",
		ParsedCommits: 3,
		ChapterCount:  2,
	}
	chapters := []models.Chapter{
		{Position: 0, Title: "Humble Beginnings", Summary: "Two commits set the stage.", First: 0, Last: 1},
		{Position: 1, Title: "The Fix", Summary: "", First: 2, Last: 2},
	}
	records := []gitlog.CommitRecord{
		{
			SHA:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			Author:  gitlog.Author{Name: "Jane Doe", Email: "jane@example.com"},
			Date:    "2023-01-15T10:30:00Z",
			Message: "Initial commit",
			Body:    "Sets up the project.\n\nNothing works yet.",
		},
		{
			SHA:     "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			Author:  gitlog.Author{Name: "John Smith", Email: "john@example.com"},
			Message: "Add parser",
		},
		{
			SHA:     "cccccccccccccccccccccccccccccccccccccccc",
			Author:  gitlog.Author{Name: "Jane Doe", Email: "jane@example.com"},
			Date:    "2023-01-17T09:00:00Z",
			Message: "Fix edge case",
		},
	}

	doc := Markdown(story, chapters, records)

	assert.True(t, strings.HasPrefix(doc, "# The Parser Saga\n"))
	assert.Contains(t, doc, "Repository: https://github.com/example/parser")
	assert.Contains(t, doc, "3 commits in 2 chapters, told in the epic style.")
	assert.Contains(t, doc, "## Chapter 1: Humble Beginnings")
	assert.Contains(t, doc, "Two commits set the stage.")
	assert.Contains(t, doc, "## Chapter 2: The Fix")
	assert.Contains(t, doc, "- `aaaaaaa` **Initial commit** by Jane Doe on 2023-01-15T10:30:00Z")
	assert.Contains(t, doc, "  Sets up the project.")
	assert.Contains(t, doc, "  Nothing works yet.")

	// The dateless commit renders without an "on" clause
	assert.Contains(t, doc, "- `bbbbbbb` **Add parser** by John Smith\n")
}

func TestMarkdown_ClampsBadRanges(t *testing.T) {
	story := &models.Story{Title: "Robust", Style: "changelog", ParsedCommits: 1, ChapterCount: 2}
	chapters := []models.Chapter{
		{Position: 0, Title: "In Range", First: 0, Last: 5},
		{Position: 1, Title: "Out of Range", First: 9, Last: 10},
	}
	records := []gitlog.CommitRecord{
		{SHA: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Author: gitlog.Author{Name: "J", Email: "j@x.io"}, Message: "Only commit"},
	}

	doc := Markdown(story, chapters, records)

	assert.Contains(t, doc, "Only commit")
	assert.Contains(t, doc, "## Chapter 2: Out of Range")
	// Exactly one commit line rendered
	assert.Equal(t, 1, strings.Count(doc, "- `"))
}

func TestMarkdown_NoRepoURL(t *testing.T) {
	story := &models.Story{Title: "Bare", Style: "epic"}

	doc := Markdown(story, nil, nil)

	assert.NotContains(t, doc, "Repository:")
}
