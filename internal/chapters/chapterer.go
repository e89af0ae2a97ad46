// Package chapters groups commit histories into narrative chapters. The
// primary implementation is a thin wrapper around an OpenAI-compatible chat
// completions endpoint; a deterministic fixed-size batcher serves both as the
// no-credentials default and as the fallback when a model reply cannot be
// used.
package chapters

import (
	"context"

	"github.com/bhdoggett/git-story-sub000/internal/models"
)

// Draft is one proposed chapter: a title, a short summary, and the inclusive
// 0-based range of commits it covers in the input slice.
type Draft struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	First   int    `json:"first"`
	Last    int    `json:"last"`
}

// Chapterer turns an ordered commit list into an ordered chapter list.
// Implementations must cover every commit exactly once, in order.
type Chapterer interface {
	GroupCommits(ctx context.Context, commits []models.Commit, style StylePreset) ([]Draft, error)
}
