// Package export renders stored stories into portable documents.
package export

import (
	"fmt"
	"strings"

	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
	"github.com/bhdoggett/git-story-sub000/internal/models"
)

// Markdown renders a story with its chapters and commits as a markdown
// document. Commit bodies are included in full.
func Markdown(story *models.Story, chapters []models.Chapter, records []gitlog.CommitRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", story.Title)
	if story.RepoURL != "" {
		fmt.Fprintf(&b, "Repository: %s\n\n", story.RepoURL)
	}
	fmt.Fprintf(&b, "%d commits in %d chapters, told in the %s style.\n", story.ParsedCommits, story.ChapterCount, story.Style)

	for _, ch := range chapters {
		fmt.Fprintf(&b, "\n## Chapter %d: %s\n\n", ch.Position+1, ch.Title)
		if ch.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", ch.Summary)
		}

		first, last := ch.First, ch.Last
		if first < 0 || first >= len(records) || last < first {
			continue
		}
		if last >= len(records) {
			last = len(records) - 1
		}

		for i := first; i <= last; i++ {
			writeCommit(&b, records[i])
		}
	}

	return b.String()
}

func writeCommit(b *strings.Builder, r gitlog.CommitRecord) {
	short := r.SHA
	if len(short) > 7 {
		short = short[:7]
	}

	fmt.Fprintf(b, "- `%s` **%s**", short, r.Message)
	if r.Author.Name != "" {
		fmt.Fprintf(b, " by %s", r.Author.Name)
	}
	if r.Date != "" {
		fmt.Fprintf(b, " on %s", r.Date)
	}
	b.WriteString("\n")

	if r.Body != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(r.Body, "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			fmt.Fprintf(b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
}
