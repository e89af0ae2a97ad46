package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bhdoggett/git-story-sub000/internal/chapters"
	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
	"github.com/bhdoggett/git-story-sub000/internal/models"
)

// maxReportedErrors caps how many parse errors a response carries. The
// counts always reflect the full picture.
const maxReportedErrors = 100

type parseReport struct {
	TotalCommits       int                 `json:"totalCommits"`
	SuccessfullyParsed int                 `json:"successfullyParsed"`
	ErrorCount         int                 `json:"errorCount"`
	Errors             []gitlog.ParseError `json:"errors"`
}

func newParseReport(result *gitlog.ParseResult) parseReport {
	errs := result.Errors
	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	return parseReport{
		TotalCommits:       result.TotalCommits,
		SuccessfullyParsed: result.SuccessfullyParsed,
		ErrorCount:         len(result.Errors),
		Errors:             errs,
	}
}

// toParseIssues converts parse errors into their stored form, capped the
// same way the response report is.
func toParseIssues(errs []gitlog.ParseError) []models.ParseIssue {
	if len(errs) > maxReportedErrors {
		errs = errs[:maxReportedErrors]
	}
	return gitlog.ToParseIssues(errs)
}

type createStoryResponse struct {
	Story    *models.Story    `json:"story"`
	Chapters []models.Chapter `json:"chapters"`
	Parse    parseReport      `json:"parse"`
}

func (a *api) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("upload exceeds the %d byte limit", a.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "multipart form with a 'file' field is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("upload exceeds the %d byte limit", a.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}

	if !looksLikeText(raw) {
		writeError(w, http.StatusBadRequest, "bad_request", "upload does not look like a plain text git log")
		return
	}

	styleName := r.FormValue("style")
	style, ok := chapters.FindStyle(a.cfg.Styles, styleName)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown style %q", styleName))
		return
	}

	result := gitlog.Parse(string(raw))
	if result.SuccessfullyParsed == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "no_commits",
			"message": "could not parse any commits: check the command you used to generate this file",
			"parse":   newParseReport(result),
		})
		return
	}

	commits := gitlog.ToGitHubCommits(result.Commits)
	drafts, err := a.chapterer.GroupCommits(r.Context(), commits, style)
	if err != nil {
		a.logger.Error("chapter grouping failed", "error", err)
		writeError(w, http.StatusBadGateway, "chaptering_failed", "failed to group commits into chapters")
		return
	}

	hash, err := a.archive.Put(raw)
	if err != nil {
		a.logger.Error("archive upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to archive upload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = titleFromFilename(header.Filename)
	}

	now := time.Now().UTC()
	story := &models.Story{
		ID:            uuid.New().String(),
		Title:         title,
		RepoURL:       strings.TrimSpace(r.FormValue("repo_url")),
		Style:         style.Name,
		LogHash:       hash,
		TotalCommits:  result.TotalCommits,
		ParsedCommits: result.SuccessfullyParsed,
		ChapterCount:  len(drafts),
		ParseIssues:   toParseIssues(result.Errors),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	chs := make([]models.Chapter, len(drafts))
	for i, d := range drafts {
		chs[i] = models.Chapter{
			ID:       uuid.New().String(),
			StoryID:  story.ID,
			Position: i,
			Title:    d.Title,
			Summary:  d.Summary,
			First:    d.First,
			Last:     d.Last,
		}
	}

	if err := a.store.CreateStory(story, chs, result.Commits); err != nil {
		a.logger.Error("persist story", "error", err, "story_id", story.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to persist story")
		return
	}

	a.cfg.Webhooks.NotifyStoryCreated(story)

	a.logger.Info("story created",
		"story_id", story.ID,
		"title", story.Title,
		"style", story.Style,
		"commits", story.ParsedCommits,
		"chapters", story.ChapterCount,
	)

	writeJSON(w, http.StatusCreated, createStoryResponse{Story: story, Chapters: chs, Parse: newParseReport(result)})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// looksLikeText rejects uploads that carry NUL bytes near the start,
// the usual tell of an accidentally selected binary file.
func looksLikeText(data []byte) bool {
	head := data
	if len(head) > 8192 {
		head = head[:8192]
	}
	return bytes.IndexByte(head, 0) == -1
}

func titleFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if base == "" || base == "." {
		return "Untitled Story"
	}
	return base
}
