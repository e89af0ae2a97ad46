package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bhdoggett/git-story-sub000/internal/export"
	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
	"github.com/bhdoggett/git-story-sub000/internal/logarchive"
	"github.com/bhdoggett/git-story-sub000/internal/models"
	"github.com/bhdoggett/git-story-sub000/internal/store"
)

type storyResponse struct {
	Story    *models.Story    `json:"story"`
	Chapters []models.Chapter `json:"chapters"`
}

type commitPageResponse struct {
	Commits []models.Commit `json:"commits"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int             `json:"total"`
}

func (a *api) handleListStories(w http.ResponseWriter, _ *http.Request) {
	stories, err := a.store.ListStories()
	if err != nil {
		a.logger.Error("list stories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list stories")
		return
	}
	if stories == nil {
		stories = []*models.Story{}
	}

	writeJSON(w, http.StatusOK, stories)
}

func (a *api) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	story, err := a.store.GetStory(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "story not found")
			return
		}
		a.logger.Error("get story", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load story")
		return
	}

	chapters, err := a.store.ListChapters(id)
	if err != nil {
		a.logger.Error("list chapters", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load chapters")
		return
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}

	writeJSON(w, http.StatusOK, storyResponse{Story: story, Chapters: chapters})
}

func (a *api) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	story, err := a.store.GetStory(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "story not found")
			return
		}
		a.logger.Error("get story", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load story")
		return
	}

	if err := a.store.DeleteStory(id); err != nil {
		a.logger.Error("delete story", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete story")
		return
	}

	// Drop the archived upload once nothing references it anymore.
	remaining, err := a.store.CountStoriesByLogHash(story.LogHash)
	if err == nil && remaining == 0 {
		if err := a.archive.Delete(story.LogHash); err != nil {
			a.logger.Warn("delete archived log", "error", err, "hash", story.LogHash)
		}
	}

	a.cfg.Webhooks.NotifyStoryDeleted(story)

	a.logger.Info("story deleted", "story_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleListCommits(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := a.store.GetStory(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "story not found")
			return
		}
		a.logger.Error("get story", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load story")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", 50)
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 200 {
		perPage = 200
	}

	total, err := a.store.CountCommits(id)
	if err != nil {
		a.logger.Error("count commits", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load commits")
		return
	}

	records, err := a.store.ListCommits(id, (page-1)*perPage, perPage)
	if err != nil {
		a.logger.Error("list commits", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load commits")
		return
	}

	commits := gitlog.ToGitHubCommits(records)
	if commits == nil {
		commits = []models.Commit{}
	}

	writeJSON(w, http.StatusOK, commitPageResponse{
		Commits: commits,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	})
}

func (a *api) handleDownloadLog(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	story, err := a.store.GetStory(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "story not found")
			return
		}
		a.logger.Error("get story", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load story")
		return
	}

	reader, size, err := a.archive.Open(story.LogHash)
	if err != nil {
		if errors.Is(err, logarchive.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "archived log not found")
			return
		}
		a.logger.Error("open archived log", "error", err, "hash", story.LogHash)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to open archived log")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, reader)
}

func (a *api) handleExportStory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	story, err := a.store.GetStory(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "story not found")
			return
		}
		a.logger.Error("get story", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load story")
		return
	}

	chapters, err := a.store.ListChapters(id)
	if err != nil {
		a.logger.Error("list chapters", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load chapters")
		return
	}

	records, err := a.store.ListCommits(id, 0, 0)
	if err != nil {
		a.logger.Error("list commits", "error", err, "story_id", id)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load commits")
		return
	}

	markdown := export.Markdown(story, chapters, records)

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(markdown))
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
