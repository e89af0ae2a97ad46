package chapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bhdoggett/git-story-sub000/internal/models"
)

const (
	// DefaultWindow caps how many commits go into one model request.
	DefaultWindow = 300

	// maxResponseBytes bounds how much of a completion response is read.
	maxResponseBytes = 1 << 20
)

// LLMOptions configures the chat-completions client.
type LLMOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// Window is the maximum number of commits per request. Longer histories
	// are grouped window by window.
	Window int
	// FallbackSize is the batch size used when a window falls back to fixed
	// batching.
	FallbackSize int
}

// LLMChapterer asks a chat-completions endpoint to group commits into
// chapters. Every window whose reply cannot be used (transport failure,
// non-2xx status, unparseable or non-covering chapter JSON) degrades to
// fixed-size batching for that window, so GroupCommits reports errors by
// producing plainer chapters rather than failing.
type LLMChapterer struct {
	opts     LLMOptions
	client   *http.Client
	fallback FixedBatcher
	logger   *slog.Logger
	backoff  time.Duration
}

// NewLLMChapterer creates the client, applying defaults for unset options.
func NewLLMChapterer(opts LLMOptions, logger *slog.Logger) *LLMChapterer {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMChapterer{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		fallback: FixedBatcher{Size: opts.FallbackSize},
		logger:   logger,
		backoff:  time.Second,
	}
}

// GroupCommits implements Chapterer.
func (g *LLMChapterer) GroupCommits(ctx context.Context, commits []models.Commit, style StylePreset) ([]Draft, error) {
	if len(commits) == 0 {
		return nil, nil
	}

	var drafts []Draft
	for base := 0; base < len(commits); base += g.opts.Window {
		end := base + g.opts.Window
		if end > len(commits) {
			end = len(commits)
		}
		window := commits[base:end]

		windowDrafts, err := g.groupWindow(ctx, window, style)
		if err != nil {
			g.logger.Warn("chapter grouping fell back to fixed batching",
				"window_start", base, "window_size", len(window), "reason", err)
			windowDrafts, _ = g.fallback.GroupCommits(ctx, window, style)
		}

		for _, d := range windowDrafts {
			d.First += base
			d.Last += base
			drafts = append(drafts, d)
		}
	}

	return drafts, nil
}

func (g *LLMChapterer) groupWindow(ctx context.Context, commits []models.Commit, style StylePreset) ([]Draft, error) {
	content, err := g.complete(ctx, buildMessages(commits, style))
	if err != nil {
		return nil, err
	}
	return parseDrafts(content, len(commits))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete performs one chat-completions call and returns the reply text.
// Retries once on transport errors and 5xx; 4xx responses are final.
func (g *LLMChapterer) complete(ctx context.Context, messages []chatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       g.opts.Model,
		Messages:    messages,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	const maxRetries = 1

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			g.opts.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			time.Sleep(time.Duration(attempt+1) * g.backoff)
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				return "", fmt.Errorf("read response: %w", readErr)
			}
			var parsed chatResponse
			if err := json.Unmarshal(body, &parsed); err != nil {
				return "", fmt.Errorf("decode response: %w", err)
			}
			if len(parsed.Choices) == 0 {
				return "", fmt.Errorf("response has no choices")
			}
			return parsed.Choices[0].Message.Content, nil
		}

		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return "", lastErr // don't retry 4xx
		}
		time.Sleep(time.Duration(attempt+1) * g.backoff)
	}

	return "", lastErr
}

func buildMessages(commits []models.Commit, style StylePreset) []chatMessage {
	var system strings.Builder
	system.WriteString("You group git commits into chapters of a repository story. ")
	if style.Tone != "" {
		fmt.Fprintf(&system, "The story's tone is %s. ", style.Tone)
	}
	if style.Voice != "" {
		fmt.Fprintf(&system, "Write titles and summaries in a %s voice. ", style.Voice)
	}
	if style.CommitsPerChapter > 0 {
		fmt.Fprintf(&system, "Aim for roughly %d commits per chapter. ", style.CommitsPerChapter)
	}
	system.WriteString("Reply with only a JSON array of objects " +
		`{"title": string, "summary": string, "first": int, "last": int} ` +
		"where first and last are inclusive commit numbers. Chapters must cover " +
		"every commit in order, without gaps or overlaps.")

	var user strings.Builder
	for i, c := range commits {
		if c.Commit.Author.Date != "" {
			fmt.Fprintf(&user, "%d. [%s] %s %s\n", i, c.ShortSHA(), c.Commit.Author.Date, c.Commit.Message)
		} else {
			fmt.Fprintf(&user, "%d. [%s] %s\n", i, c.ShortSHA(), c.Commit.Message)
		}
	}

	return []chatMessage{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: user.String()},
	}
}

// parseDrafts extracts the first JSON array from a model reply and checks
// that the drafts cover commits 0..n-1 contiguously and in order. Replies
// wrapped in prose or code fences still parse; anything that does not
// validate is rejected so the caller can fall back.
func parseDrafts(content string, n int) ([]Draft, error) {
	start := strings.IndexByte(content, '[')
	end := strings.LastIndexByte(content, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("reply contains no JSON array")
	}

	var drafts []Draft
	if err := json.Unmarshal([]byte(content[start:end+1]), &drafts); err != nil {
		return nil, fmt.Errorf("decode chapter JSON: %w", err)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("empty chapter list")
	}

	next := 0
	for i, d := range drafts {
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("chapter %d has no title", i)
		}
		if d.First != next {
			return nil, fmt.Errorf("chapter %d starts at commit %d, want %d", i, d.First, next)
		}
		if d.Last < d.First || d.Last >= n {
			return nil, fmt.Errorf("chapter %d has invalid range %d..%d", i, d.First, d.Last)
		}
		next = d.Last + 1
	}
	if next != n {
		return nil, fmt.Errorf("chapters cover %d of %d commits", next, n)
	}

	return drafts, nil
}
