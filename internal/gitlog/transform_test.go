package gitlog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []CommitRecord {
	return []CommitRecord{
		{
			SHA:     shaA,
			Author:  Author{Name: "Jane Doe", Email: "jane@example.com"},
			Date:    "2023-01-02T15:04:05Z",
			Message: "add initial parser",
			Files: []FileStat{
				{Filename: "parser.go", Additions: 120, Deletions: 0},
				{Filename: "parser_test.go", Additions: 80, Deletions: 2},
			},
		},
		{
			SHA:     shaB,
			Author:  Author{Name: "Sam Roe", Email: "sam@example.com"},
			Message: "fix author splitting",
		},
	}
}

func TestToGitHubCommits_LengthAndOrder(t *testing.T) {
	records := sampleRecords()

	commits := ToGitHubCommits(records)

	require.Len(t, commits, len(records))
	for i := range records {
		assert.Equal(t, records[i].SHA, commits[i].SHA)
	}
}

func TestToGitHubCommits_RoundTrip(t *testing.T) {
	records := sampleRecords()

	commits := ToGitHubCommits(records)

	for i, rec := range records {
		c := commits[i]
		assert.Equal(t, rec.SHA, c.SHA)
		assert.Equal(t, rec.Message, c.Commit.Message)
		assert.Equal(t, rec.Author.Name, c.Commit.Author.Name)
		assert.Equal(t, rec.Author.Email, c.Commit.Author.Email)
		assert.Equal(t, rec.Date, c.Commit.Author.Date)
	}
}

func TestToGitHubCommits_Files(t *testing.T) {
	commits := ToGitHubCommits(sampleRecords())

	require.Len(t, commits[0].Files, 2)
	assert.Equal(t, "parser.go", commits[0].Files[0].Filename)
	assert.Equal(t, 120, commits[0].Files[0].Additions)
	assert.Equal(t, 2, commits[0].Files[1].Deletions)

	// A record without a stat section yields no files key at all.
	assert.Nil(t, commits[1].Files)
}

func TestToGitHubCommits_WireShape(t *testing.T) {
	commits := ToGitHubCommits(sampleRecords())

	data, err := json.Marshal(commits[1])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "sha")
	assert.Contains(t, decoded, "commit")
	assert.NotContains(t, decoded, "html_url")
	assert.NotContains(t, decoded, "files")

	nested, ok := decoded["commit"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, nested, "message")
	assert.Contains(t, nested, "author")

	author, ok := nested["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Sam Roe", author["name"])
	// No date line in the source record, so no date key on the wire.
	assert.NotContains(t, author, "date")
}

func TestToGitHubCommits_Empty(t *testing.T) {
	assert.Empty(t, ToGitHubCommits(nil))
	assert.Empty(t, ToGitHubCommits([]CommitRecord{}))
}

func TestToGitHubCommits_ParseThenTransform(t *testing.T) {
	raw := validBlock(shaA) + validBlock(shaC)

	result := Parse(raw)
	require.Equal(t, 2, result.SuccessfullyParsed)

	commits := ToGitHubCommits(result.Commits)

	require.Len(t, commits, 2)
	assert.Equal(t, shaA, commits[0].SHA)
	assert.Equal(t, shaC, commits[1].SHA)
	assert.Equal(t, "add initial parser", commits[0].Commit.Message)
	assert.Equal(t, "Mon Jan 2 15:04:05 2023 -0700", commits[0].Commit.Author.Date)
}

func TestToParseIssues(t *testing.T) {
	errs := []ParseError{
		{RecordIndex: 1, Reason: "missing SHA", RawExcerpt: "Author: A <a@b.c>"},
		{RecordIndex: 4, Reason: "invalid author format", RawExcerpt: "Author: nobody"},
	}

	issues := ToParseIssues(errs)

	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].RecordIndex)
	assert.Equal(t, "missing SHA", issues[0].Reason)
	assert.Equal(t, "Author: A <a@b.c>", issues[0].RawExcerpt)
	assert.Equal(t, 4, issues[1].RecordIndex)

	assert.Nil(t, ToParseIssues(nil))
}
