package gitlog

import "github.com/bhdoggett/git-story-sub000/internal/models"

// ToGitHubCommits maps commit records into the GitHub commits API shape,
// preserving length and order. Every record field the shape can carry maps
// to a fixed destination, so reading sha, commit.message, commit.author.name
// and commit.author.date back reproduces the record exactly. Records reach
// this function already validated, so no checking happens here.
func ToGitHubCommits(records []CommitRecord) []models.Commit {
	commits := make([]models.Commit, len(records))

	for i, rec := range records {
		c := models.Commit{
			SHA: rec.SHA,
			Commit: models.CommitDetail{
				Message: rec.Message,
				Author: models.CommitAuthor{
					Name:  rec.Author.Name,
					Email: rec.Author.Email,
					Date:  rec.Date,
				},
			},
		}

		if len(rec.Files) > 0 {
			files := make([]models.CommitFile, len(rec.Files))
			for j, f := range rec.Files {
				files[j] = models.CommitFile{
					Filename:  f.Filename,
					Additions: f.Additions,
					Deletions: f.Deletions,
				}
			}
			c.Files = files
		}

		commits[i] = c
	}

	return commits
}

// ToParseIssues maps parse errors into their stored story form, preserving
// length and order.
func ToParseIssues(errs []ParseError) []models.ParseIssue {
	if len(errs) == 0 {
		return nil
	}
	issues := make([]models.ParseIssue, len(errs))
	for i, e := range errs {
		issues[i] = models.ParseIssue{
			RecordIndex: e.RecordIndex,
			Reason:      e.Reason,
			RawExcerpt:  e.RawExcerpt,
		}
	}
	return issues
}
