// Package gitlog parses git history exports delimited by COMMIT_START and
// COMMIT_END marker lines into validated commit records, and converts those
// records into the GitHub commits API wire shape.
//
// Parsing is a pure, single-pass transformation: malformed blocks become
// ParseError entries instead of failing the batch, and the same input always
// produces the same ParseResult.
package gitlog

import "fmt"

// Author is the name/email pair from a block's Author line.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FileStat is one changed file from a block's stat section.
type FileStat struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CommitRecord is one validated commit from the uploaded log.
type CommitRecord struct {
	// SHA is exactly 40 hex characters. Duplicate SHAs in one log are kept
	// as separate records.
	SHA    string `json:"sha"`
	Author Author `json:"author"`
	// Date is the raw date string from the Date line, empty when the line
	// was absent. No timezone normalization happens here.
	Date string `json:"date,omitempty"`
	// Message is the first line following the Message field.
	Message string `json:"message"`
	// Body holds the remaining message lines, when the export included them.
	Body string `json:"body,omitempty"`
	// Files lists the stat section entries in file order, empty when the
	// export was generated without stats.
	Files []FileStat `json:"files,omitempty"`
}

// ParseError describes one commit block that failed validation.
type ParseError struct {
	// RecordIndex is the 0-based position of the block among all complete
	// blocks in the input, so the failure can be correlated back to the
	// source file.
	RecordIndex int    `json:"record_index"`
	Reason      string `json:"reason"`
	// RawExcerpt is a bounded prefix of the block's raw text.
	RawExcerpt string `json:"raw_excerpt"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("commit block %d: %s", e.RecordIndex, e.Reason)
}

// ParseResult is the outcome of parsing one log export. Both sequences keep
// input order, and TotalCommits == SuccessfullyParsed + len(Errors) always
// holds.
type ParseResult struct {
	Commits            []CommitRecord `json:"commits"`
	Errors             []ParseError   `json:"errors"`
	TotalCommits       int            `json:"total_commits"`
	SuccessfullyParsed int            `json:"successfully_parsed"`
}

// HasErrors reports whether any block failed validation.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Empty reports whether the input contained no complete commit blocks at
// all. Callers decide whether that is a user-facing failure.
func (r *ParseResult) Empty() bool {
	return r.TotalCommits == 0
}
