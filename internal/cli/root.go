// Package cli implements the command-line interface for GitStory.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/chapters"
	"github.com/bhdoggett/git-story-sub000/internal/config"
	"github.com/bhdoggett/git-story-sub000/internal/logarchive"
	"github.com/bhdoggett/git-story-sub000/internal/store"
)

var configPath string

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config  *config.Config
	Store   *store.Store
	Archive *logarchive.Archive
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext loads config and opens the store and log archive
func initContext() *cmdContext {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.Storage.DBPath)
	if err != nil {
		exitError("failed to open store: %v", err)
	}

	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize store: %v", err)
	}

	archive, err := logarchive.New(cfg.Storage.ArchivePath)
	if err != nil {
		st.Close()
		exitError("failed to open log archive: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st, Archive: archive}
}

// loadStyles returns the built-in presets plus any configured style file
func loadStyles(cfg *config.Config) []chapters.StylePreset {
	if cfg.Chapters.StylesPath == "" {
		return chapters.DefaultStyles()
	}
	styles, err := chapters.LoadStyleFile(cfg.Chapters.StylesPath)
	if err != nil {
		exitError("failed to load styles: %v", err)
	}
	return styles
}

// buildChapterer picks the AI chapterer when credentials are configured,
// and fixed-size batching otherwise
func buildChapterer(cfg *config.Config, logger *slog.Logger) chapters.Chapterer {
	if cfg.AIEnabled() {
		return chapters.NewLLMChapterer(chapters.LLMOptions{
			BaseURL:      cfg.AI.BaseURL,
			APIKey:       cfg.AI.APIKey,
			Model:        cfg.AI.Model,
			Timeout:      time.Duration(cfg.AI.RequestTimeout) * time.Second,
			Window:       cfg.Chapters.MaxCommitsPerRequest,
			FallbackSize: cfg.Chapters.FallbackBatchSize,
		}, logger)
	}
	return chapters.FixedBatcher{Size: cfg.Chapters.FallbackBatchSize}
}

var rootCmd = &cobra.Command{
	Use:   "gitstory",
	Short: "Turn a git log into a chaptered story",
	Long: `GitStory parses delimited git log exports into structured commits,
groups the commits into narrative chapters, and stores the result so it
can be browsed, exported as Markdown, or served over HTTP.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "Path to the configuration file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// shortSHA returns first 7 characters of a commit hash
func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
