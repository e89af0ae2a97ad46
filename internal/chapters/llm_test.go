package chapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func completionReply(content string) []byte {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return data
}

func newTestChapterer(t *testing.T, handler http.HandlerFunc, opts LLMOptions) *LLMChapterer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL
	c := NewLLMChapterer(opts, discardLogger())
	c.backoff = time.Millisecond
	return c
}

func TestLLMChapterer_GroupCommits(t *testing.T) {
	var gotAuth string
	c := newTestChapterer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write(completionReply(`[
			{"title": "Laying foundations", "summary": "The first steps.", "first": 0, "last": 2},
			{"title": "Hard lessons", "summary": "Bugs strike back.", "first": 3, "last": 4}
		]`))
	}, LLMOptions{APIKey: "test-key", Model: "gpt-4o-mini"})

	drafts, err := c.GroupCommits(context.Background(), testCommits(5), StylePreset{Tone: "epic"})

	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Laying foundations", drafts[0].Title)
	assert.Equal(t, 0, drafts[0].First)
	assert.Equal(t, 2, drafts[0].Last)
	assert.Equal(t, 4, drafts[1].Last)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestLLMChapterer_WindowedRequests(t *testing.T) {
	var requests atomic.Int32
	c := newTestChapterer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		n := strings.Count(req.Messages[1].Content, "\n")

		w.Write(completionReply(fmt.Sprintf(
			`[{"title": "Window", "summary": "s", "first": 0, "last": %d}]`, n-1)))
	}, LLMOptions{Window: 2})

	drafts, err := c.GroupCommits(context.Background(), testCommits(5), StylePreset{})

	require.NoError(t, err)
	assert.Equal(t, int32(3), requests.Load())
	require.Len(t, drafts, 3)

	// Window-local ranges come back offset into the full commit list.
	assert.Equal(t, 0, drafts[0].First)
	assert.Equal(t, 1, drafts[0].Last)
	assert.Equal(t, 2, drafts[1].First)
	assert.Equal(t, 3, drafts[1].Last)
	assert.Equal(t, 4, drafts[2].First)
	assert.Equal(t, 4, drafts[2].Last)
}

func TestLLMChapterer_FallbackOnUnparseableReply(t *testing.T) {
	c := newTestChapterer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionReply("I'm sorry, I can't produce chapters for that."))
	}, LLMOptions{FallbackSize: 2})

	drafts, err := c.GroupCommits(context.Background(), testCommits(5), StylePreset{})

	require.NoError(t, err)
	require.Len(t, drafts, 3)
	assert.Equal(t, 0, drafts[0].First)
	assert.Equal(t, 1, drafts[0].Last)
	assert.Equal(t, 4, drafts[2].Last)
}

func TestLLMChapterer_RetriesOnceOn5xx(t *testing.T) {
	var requests atomic.Int32
	c := newTestChapterer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}, LLMOptions{FallbackSize: 3})

	drafts, err := c.GroupCommits(context.Background(), testCommits(6), StylePreset{})

	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
	require.Len(t, drafts, 2) // fixed batches of 3
}

func TestLLMChapterer_NoRetryOn4xx(t *testing.T) {
	var requests atomic.Int32
	c := newTestChapterer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}, LLMOptions{FallbackSize: 10})

	drafts, err := c.GroupCommits(context.Background(), testCommits(4), StylePreset{})

	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
	require.Len(t, drafts, 1)
}

func TestLLMChapterer_EmptyInput(t *testing.T) {
	c := NewLLMChapterer(LLMOptions{}, discardLogger())

	drafts, err := c.GroupCommits(context.Background(), nil, StylePreset{})

	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestParseDrafts(t *testing.T) {
	valid := `[{"title": "One", "summary": "a", "first": 0, "last": 1},
	           {"title": "Two", "summary": "b", "first": 2, "last": 2}]`

	tests := []struct {
		name    string
		content string
		n       int
		wantErr bool
	}{
		{"plain array", valid, 3, false},
		{"fenced array", "```json\n" + valid + "\n```", 3, false},
		{"prose around array", "Here you go:\n" + valid + "\nEnjoy!", 3, false},
		{"no json", "cannot comply", 3, true},
		{"not an array of drafts", `["a", "b"]`, 3, true},
		{"empty array", `[]`, 3, true},
		{"gap", `[{"title": "One", "summary": "", "first": 0, "last": 0},
		         {"title": "Two", "summary": "", "first": 2, "last": 2}]`, 3, true},
		{"overlap", `[{"title": "One", "summary": "", "first": 0, "last": 1},
		             {"title": "Two", "summary": "", "first": 1, "last": 2}]`, 3, true},
		{"range past end", `[{"title": "One", "summary": "", "first": 0, "last": 5}]`, 3, true},
		{"missing coverage", `[{"title": "One", "summary": "", "first": 0, "last": 1}]`, 3, true},
		{"blank title", `[{"title": "  ", "summary": "", "first": 0, "last": 2}]`, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, err := parseDrafts(tt.content, tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, drafts, 2)
		})
	}
}
