package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhdoggett/git-story-sub000/internal/models"
)

func webhookStory() *models.Story {
	return &models.Story{
		ID:            "story-1",
		Title:         "A Repo's Tale",
		Style:         "epic",
		ParsedCommits: 42,
		ChapterCount:  3,
	}
}

func TestNewWebhookNotifier_NilConfig(t *testing.T) {
	wn := NewWebhookNotifier(nil, slog.Default())
	assert.Nil(t, wn)
}

func TestNewWebhookNotifier_EmptyURLs(t *testing.T) {
	wn := NewWebhookNotifier(&WebhookConfig{URLs: nil}, slog.Default())
	assert.Nil(t, wn)
}

func TestWebhookNotifier_NilReceiver(t *testing.T) {
	// Should not panic
	var wn *WebhookNotifier
	wn.NotifyStoryCreated(webhookStory())
	wn.NotifyStoryDeleted(webhookStory())
}

func TestWebhookNotifier_NotifyStoryCreated(t *testing.T) {
	var mu sync.Mutex
	var received []WebhookEvent

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event WebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts.URL}}, slog.Default())
	require.NotNil(t, wn)

	wn.NotifyStoryCreated(webhookStory())

	// Wait for async delivery
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "story.created", received[0].Event)
	assert.Equal(t, "story-1", received[0].StoryID)
	assert.Equal(t, "A Repo's Tale", received[0].Title)
	assert.Equal(t, 42, received[0].ParsedCommits)
	assert.Equal(t, 3, received[0].ChapterCount)
	assert.NotEmpty(t, received[0].Timestamp)
}

func TestWebhookNotifier_NotifyStoryDeleted_MultipleURLs(t *testing.T) {
	var mu sync.Mutex
	callCount := 0
	events := map[string]int{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event WebhookEvent
		json.NewDecoder(r.Body).Decode(&event)
		mu.Lock()
		callCount++
		events[event.Event]++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	ts1 := httptest.NewServer(handler)
	defer ts1.Close()
	ts2 := httptest.NewServer(handler)
	defer ts2.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts1.URL, ts2.URL}}, slog.Default())
	require.NotNil(t, wn)

	wn.NotifyStoryDeleted(webhookStory())

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 2, events["story.deleted"])
}

func TestWebhookNotifier_Post_4xxNoRetry(t *testing.T) {
	callCount := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	wn := NewWebhookNotifier(&WebhookConfig{URLs: []string{ts.URL}}, slog.Default())
	require.NotNil(t, wn)

	err := wn.post(ts.URL, []byte(`{}`))
	assert.Error(t, err)
	assert.Equal(t, 1, callCount) // no retry for 4xx
}
