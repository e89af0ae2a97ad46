package cli

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/config"
	"github.com/bhdoggett/git-story-sub000/internal/logarchive"
	"github.com/bhdoggett/git-story-sub000/internal/server"
	"github.com/bhdoggett/git-story-sub000/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GitStory HTTP API server",
	Long: `Run the HTTP API server that accepts git log uploads and serves
stored stories. Settings come from the configuration file and
GITSTORY_* environment variables.`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)

	st, err := store.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.Storage.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	archive, err := logarchive.New(cfg.Storage.ArchivePath)
	if err != nil {
		logger.Error("failed to open log archive", "error", err, "path", cfg.Storage.ArchivePath)
		os.Exit(1)
	}

	chapterer := buildChapterer(cfg, logger)
	if cfg.AIEnabled() {
		logger.Info("AI chapter grouping enabled", "model", cfg.AI.Model)
	} else {
		logger.Info("AI not configured, using fixed-size chapters")
	}

	scfg := &server.ServerConfig{
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		APIToken:          cfg.Server.APIToken,
		Styles:            loadStyles(cfg),
	}

	if len(cfg.Webhooks.URLs) > 0 {
		scfg.Webhooks = server.NewWebhookNotifier(&server.WebhookConfig{URLs: cfg.Webhooks.URLs}, logger)
		logger.Info("webhooks configured", "count", len(cfg.Webhooks.URLs))
	}

	h, handlerCleanup := server.Handler(st, archive, chapterer, scfg, logger)
	defer handlerCleanup()

	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: h,
		// Uploads can be large and arrive over slow links
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return context.Background() },
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting gitstory server", "listen", cfg.Server.Listen, "db", cfg.Storage.DBPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// newLogger builds an slog logger from level and format config
func newLogger(logLevel, logFormat string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if logFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
