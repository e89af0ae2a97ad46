package models

import "time"

// Story is one narrated repository history, built from a single uploaded
// log export.
type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	RepoURL       string    `json:"repo_url,omitempty"`
	Style         string    `json:"style,omitempty"`
	LogHash       string    `json:"log_hash,omitempty"`
	TotalCommits  int       `json:"total_commits"`
	ParsedCommits int       `json:"parsed_commits"`
	ChapterCount  int       `json:"chapter_count"`
	// ParseIssues keeps the blocks that failed during the original upload,
	// so partial imports stay explainable after the fact.
	ParseIssues []ParseIssue `json:"parse_errors,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ParseIssue is the stored form of one failed commit block from the
// uploaded log.
type ParseIssue struct {
	RecordIndex int    `json:"record_index"`
	Reason      string `json:"reason"`
	RawExcerpt  string `json:"raw_excerpt"`
}

// Chapter is one narrative chapter of a story. First and Last are the
// inclusive positions of the commits it covers, in upload order.
type Chapter struct {
	ID       string `json:"id"`
	StoryID  string `json:"story_id"`
	Position int    `json:"position"`
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	First    int    `json:"first_commit"`
	Last     int    `json:"last_commit"`
}

// CommitCount returns the number of commits the chapter covers.
func (c *Chapter) CommitCount() int {
	if c.Last < c.First {
		return 0
	}
	return c.Last - c.First + 1
}
