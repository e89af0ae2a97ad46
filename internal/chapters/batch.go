package chapters

import (
	"context"
	"fmt"

	"github.com/bhdoggett/git-story-sub000/internal/models"
)

// DefaultBatchSize is the chapter size used when a batcher is built without
// an explicit one.
const DefaultBatchSize = 20

// FixedBatcher groups commits into contiguous fixed-size chapters. It never
// fails and never returns an empty chapter list for a non-empty input, which
// is what makes it a safe fallback.
type FixedBatcher struct {
	Size int
}

// GroupCommits slices the commit list into batches of at most Size commits.
// The final batch holds the remainder. Titles use the commit range in git
// revision syntax since no narrative content is available at this level.
func (b FixedBatcher) GroupCommits(_ context.Context, commits []models.Commit, style StylePreset) ([]Draft, error) {
	if len(commits) == 0 {
		return nil, nil
	}

	size := b.Size
	if size <= 0 {
		size = style.CommitsPerChapter
	}
	if size <= 0 {
		size = DefaultBatchSize
	}

	drafts := make([]Draft, 0, (len(commits)+size-1)/size)
	for start := 0; start < len(commits); start += size {
		end := start + size - 1
		if end >= len(commits) {
			end = len(commits) - 1
		}
		drafts = append(drafts, Draft{
			Title:   batchTitle(commits[start], commits[end]),
			Summary: batchSummary(commits[start:end+1]),
			First:   start,
			Last:    end,
		})
	}

	return drafts, nil
}

func batchTitle(first, last models.Commit) string {
	if first.SHA == last.SHA {
		return first.ShortSHA()
	}
	return fmt.Sprintf("%s..%s", first.ShortSHA(), last.ShortSHA())
}

func batchSummary(commits []models.Commit) string {
	first, last := commits[0], commits[len(commits)-1]
	if len(commits) == 1 {
		return first.Commit.Message
	}
	if first.Commit.Author.Date != "" && last.Commit.Author.Date != "" {
		return fmt.Sprintf("%d commits from %s to %s", len(commits),
			first.Commit.Author.Date, last.Commit.Author.Date)
	}
	return fmt.Sprintf("%d commits, starting with %q", len(commits), first.Commit.Message)
}
