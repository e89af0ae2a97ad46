package gitlog

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	commitStart = "COMMIT_START"
	commitEnd   = "COMMIT_END"

	shaPrefix     = "SHA:"
	authorPrefix  = "Author:"
	datePrefix    = "Date:"
	messagePrefix = "Message:"

	// excerptLimit bounds ParseError.RawExcerpt. Enough to find the block
	// in the source file by eye.
	excerptLimit = 200
)

var (
	shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

	// statSummaryPattern matches the closing "N files changed, ..." line of
	// a stat section. It is a section marker, not a file entry.
	statSummaryPattern = regexp.MustCompile(`^\s*\d+ files? changed(?:, \d+ insertions?\(\+\))?(?:, \d+ deletions?\(-\))?\s*$`)
)

// Parse scans a raw log export and returns every commit it can extract,
// along with one ParseError per block that failed validation. It is total:
// any input, including binary garbage, produces a result rather than a
// panic, and the parse is deterministic and side-effect free.
func Parse(raw string) *ParseResult {
	blocks := splitBlocks(raw)

	result := &ParseResult{
		Commits:      make([]CommitRecord, 0, len(blocks)),
		Errors:       []ParseError{},
		TotalCommits: len(blocks),
	}

	for i, block := range blocks {
		rec, perr := parseBlock(i, block)
		if perr != nil {
			result.Errors = append(result.Errors, *perr)
			continue
		}
		result.Commits = append(result.Commits, *rec)
	}

	result.SuccessfullyParsed = len(result.Commits)
	return result
}

// splitBlocks walks the text once and returns the content strictly between
// each COMMIT_START line and its matching COMMIT_END line. Blocks are
// substrings of the input, so no copying proportional to input size happens
// beyond the slice headers.
//
// A COMMIT_START with no following COMMIT_END is dropped silently: there is
// no complete block to score as an error. A COMMIT_START inside an open
// block restarts it, dropping the earlier partial block the same way. A
// COMMIT_END with no open block is ignored.
func splitBlocks(raw string) []string {
	var blocks []string

	open := false
	contentStart := 0

	for pos := 0; pos < len(raw); {
		lineEnd := strings.IndexByte(raw[pos:], '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = raw[pos:]
			next = len(raw)
		} else {
			line = raw[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		}

		switch strings.TrimSuffix(line, "\r") {
		case commitStart:
			open = true
			contentStart = next
		case commitEnd:
			if open {
				blocks = append(blocks, raw[contentStart:pos])
				open = false
			}
		}

		pos = next
	}

	return blocks
}

// parseBlock extracts and validates one block. Exactly one of the returns
// is non-nil: a block never yields both a record and an error, and never
// neither.
func parseBlock(index int, block string) (*CommitRecord, *ParseError) {
	var (
		sha, author, date, message string
		shaSeen, authorSeen        bool
		msgSeen                    bool

		bodyLines []string
		bodyDone  bool
		files     []FileStat
	)

	forEachLine(block, func(line string) {
		t := strings.TrimSuffix(line, "\r")

		if !msgSeen {
			switch {
			case strings.HasPrefix(t, shaPrefix):
				if !shaSeen {
					sha = strings.TrimSpace(t[len(shaPrefix):])
					shaSeen = true
				}
			case strings.HasPrefix(t, authorPrefix):
				if !authorSeen {
					author = strings.TrimSpace(t[len(authorPrefix):])
					authorSeen = true
				}
			case strings.HasPrefix(t, datePrefix):
				if date == "" {
					date = strings.TrimSpace(t[len(datePrefix):])
				}
			case strings.HasPrefix(t, messagePrefix):
				message = strings.TrimPrefix(t[len(messagePrefix):], " ")
				msgSeen = true
			}
			return
		}

		// Past the message line: stat entries, the stat summary, and body
		// text. Anything else is diff noise and is ignored.
		switch {
		case strings.HasPrefix(t, shaPrefix), strings.HasPrefix(t, authorPrefix),
			strings.HasPrefix(t, datePrefix), strings.HasPrefix(t, messagePrefix):
			// A header field after the message ends the body. First
			// occurrence of each field wins, so the value is only taken
			// when the canonical position had none.
			switch {
			case strings.HasPrefix(t, shaPrefix) && !shaSeen:
				sha = strings.TrimSpace(t[len(shaPrefix):])
				shaSeen = true
			case strings.HasPrefix(t, authorPrefix) && !authorSeen:
				author = strings.TrimSpace(t[len(authorPrefix):])
				authorSeen = true
			case strings.HasPrefix(t, datePrefix) && date == "":
				date = strings.TrimSpace(t[len(datePrefix):])
			}
			bodyDone = true
		case statSummaryPattern.MatchString(t):
			bodyDone = true
		default:
			if fs, ok := parseStatLine(t); ok {
				files = append(files, fs)
				bodyDone = true
			} else if !bodyDone {
				bodyLines = append(bodyLines, t)
			}
		}
	})

	fail := func(reason string) (*CommitRecord, *ParseError) {
		return nil, &ParseError{
			RecordIndex: index,
			Reason:      reason,
			RawExcerpt:  excerpt(block),
		}
	}

	// One error per block: the first failing check in field order wins.
	if !shaSeen {
		return fail("missing SHA")
	}
	if !shaPattern.MatchString(sha) {
		return fail("invalid SHA format")
	}
	if !authorSeen {
		return fail("missing author")
	}
	name, email, ok := splitAuthor(author)
	if !ok {
		return fail("invalid author format")
	}
	if !msgSeen {
		return fail("missing message")
	}

	return &CommitRecord{
		SHA:     sha,
		Author:  Author{Name: name, Email: email},
		Date:    date,
		Message: message,
		Body:    strings.Join(trimBlankEdges(bodyLines), "\n"),
		Files:   files,
	}, nil
}

// forEachLine visits every line of s without allocating a line slice.
func forEachLine(s string, fn func(line string)) {
	for pos := 0; pos < len(s); {
		lineEnd := strings.IndexByte(s[pos:], '\n')
		if lineEnd < 0 {
			fn(s[pos:])
			return
		}
		fn(s[pos : pos+lineEnd])
		pos += lineEnd + 1
	}
}

// splitAuthor splits "Name <email>" at the last angle-bracket pair, so
// names containing brackets still parse.
func splitAuthor(raw string) (name, email string, ok bool) {
	lt := strings.LastIndexByte(raw, '<')
	if lt < 0 {
		return "", "", false
	}
	gt := strings.IndexByte(raw[lt:], '>')
	if gt < 0 {
		return "", "", false
	}
	return strings.TrimSpace(raw[:lt]), raw[lt+1 : lt+gt], true
}

// parseStatLine recognizes one changed-file entry in either stat form:
//
//	path | 12 ++++----        (git log --stat)
//	12	4	path              (git log --numstat, tab separated)
//
// Binary files ("Bin" markers in stat form, "-" counts in numstat form)
// count as changed files with zero additions and deletions.
func parseStatLine(line string) (FileStat, bool) {
	if strings.ContainsRune(line, '\t') {
		return parseNumstatLine(line)
	}

	path, counts, found := strings.Cut(line, " | ")
	if !found {
		return FileStat{}, false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return FileStat{}, false
	}

	fields := strings.Fields(counts)
	if len(fields) == 0 {
		return FileStat{}, false
	}

	if fields[0] == "Bin" {
		return FileStat{Filename: path}, true
	}

	if _, err := strconv.Atoi(fields[0]); err != nil {
		return FileStat{}, false
	}

	fs := FileStat{Filename: path}
	if len(fields) > 1 {
		bar := fields[1]
		if strings.Trim(bar, "+-") != "" {
			return FileStat{}, false
		}
		fs.Additions = strings.Count(bar, "+")
		fs.Deletions = strings.Count(bar, "-")
	}
	return fs, true
}

func parseNumstatLine(line string) (FileStat, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return FileStat{}, false
	}

	path := strings.TrimSpace(parts[2])
	if path == "" {
		return FileStat{}, false
	}

	// "-" in both count columns marks a binary file.
	if parts[0] == "-" && parts[1] == "-" {
		return FileStat{Filename: path}, true
	}

	additions, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return FileStat{}, false
	}
	deletions, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return FileStat{}, false
	}

	return FileStat{Filename: path, Additions: additions, Deletions: deletions}, true
}

// trimBlankEdges drops leading and trailing blank lines, keeping interior
// blanks so paragraph breaks in commit bodies survive.
func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func excerpt(block string) string {
	if len(block) <= excerptLimit {
		return block
	}
	return block[:excerptLimit]
}
