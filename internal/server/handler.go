package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bhdoggett/git-story-sub000/internal/chapters"
	"github.com/bhdoggett/git-story-sub000/internal/logarchive"
	"github.com/bhdoggett/git-story-sub000/internal/store"
)

// ServerConfig holds configurable limits for the server.
type ServerConfig struct {
	MaxUploadBytes    int64  // bytes, for log uploads
	RequestsPerMinute int    // per-client rate limit
	APIToken          string // empty leaves the API open
	Styles            []chapters.StylePreset
	Webhooks          *WebhookNotifier
}

// DefaultServerConfig returns reasonable defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		MaxUploadBytes:    100 * 1024 * 1024, // 100MB
		RequestsPerMinute: 300,
		Styles:            chapters.DefaultStyles(),
	}
}

// api carries the dependencies shared by every handler.
type api struct {
	store     *store.Store
	archive   *logarchive.Archive
	chapterer chapters.Chapterer
	cfg       *ServerConfig
	logger    *slog.Logger
}

// Handler creates the HTTP handler with all routes and middleware.
// The returned cleanup function stops background goroutines and should be
// called on server shutdown.
func Handler(st *store.Store, archive *logarchive.Archive, chapterer chapters.Chapterer, cfg *ServerConfig, logger *slog.Logger) (http.Handler, func()) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if len(cfg.Styles) == 0 {
		cfg.Styles = chapters.DefaultStyles()
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &api{
		store:     st,
		archive:   archive,
		chapterer: chapterer,
		cfg:       cfg,
		logger:    logger,
	}

	rl := newRateLimiter(cfg.RequestsPerMinute)
	auth := authMiddleware(cfg.APIToken)

	// Execution order: auth -> rl -> handler
	protect := func(h http.HandlerFunc) http.Handler {
		return applyMiddleware(h, auth, rl.middleware)
	}

	mux := http.NewServeMux()

	// Health endpoints (no auth)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	// Stories
	mux.Handle("POST /api/v1/stories", protect(a.handleCreateStory))
	mux.Handle("GET /api/v1/stories", protect(a.handleListStories))
	mux.Handle("GET /api/v1/stories/{id}", protect(a.handleGetStory))
	mux.Handle("DELETE /api/v1/stories/{id}", protect(a.handleDeleteStory))
	mux.Handle("GET /api/v1/stories/{id}/commits", protect(a.handleListCommits))
	mux.Handle("GET /api/v1/stories/{id}/export", protect(a.handleExportStory))
	mux.Handle("GET /api/v1/stories/{id}/log", protect(a.handleDownloadLog))

	// Apply global middleware
	handler := applyMiddleware(mux,
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		requestIDMiddleware,
	)

	cleanup := func() {
		rl.Stop()
	}

	return handler, cleanup
}

// applyMiddleware applies middleware in reverse order so the first in the list runs first.
func applyMiddleware(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// --- Health Handlers ---

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (a *api) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if err := a.store.DB().Ping(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready: database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
