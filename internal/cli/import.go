package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/chapters"
	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
	"github.com/bhdoggett/git-story-sub000/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Parse a git log export and store it as a story",
	Long: `Parse a git log export, group its commits into chapters, and store the
result as a story in the local database. The raw upload is archived so
the original file can be downloaded again later.`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

var (
	importTitle   string
	importStyle   string
	importRepoURL string
)

func init() {
	importCmd.Flags().StringVar(&importTitle, "title", "", "Story title (defaults to the file name)")
	importCmd.Flags().StringVar(&importStyle, "style", "", "Narration style preset")
	importCmd.Flags().StringVar(&importRepoURL, "repo-url", "", "Repository URL to record with the story")
}

func runImport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitError("%v", err)
	}

	result := gitlog.Parse(string(data))
	if result.SuccessfullyParsed == 0 {
		exitError("could not parse any commits: check the command you used to generate this file")
	}
	if result.HasErrors() {
		color.New(color.FgYellow).Printf("Warning: %d commit blocks could not be parsed\n", len(result.Errors))
	}

	styleName := importStyle
	if styleName == "" {
		styleName = c.Config.Chapters.DefaultStyle
	}
	style, ok := chapters.FindStyle(loadStyles(c.Config), styleName)
	if !ok {
		exitError("unknown style %q", styleName)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	chapterer := buildChapterer(c.Config, logger)

	drafts, err := groupWithSpinner(chapterer, gitlog.ToGitHubCommits(result.Commits), style)
	if err != nil {
		exitError("chapter grouping failed: %v", err)
	}

	logHash, err := c.Archive.Put(data)
	if err != nil {
		exitError("failed to archive log: %v", err)
	}

	title := importTitle
	if title == "" {
		title = titleFromPath(args[0])
	}

	now := time.Now().UTC()
	story := &models.Story{
		ID:            uuid.New().String(),
		Title:         title,
		RepoURL:       importRepoURL,
		Style:         style.Name,
		LogHash:       logHash,
		TotalCommits:  result.TotalCommits,
		ParsedCommits: result.SuccessfullyParsed,
		ChapterCount:  len(drafts),
		ParseIssues:   gitlog.ToParseIssues(result.Errors),
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

	if err := c.Store.CreateStory(story, chs, result.Commits); err != nil {
		exitError("failed to store story: %v", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Created story %s\n", shortID(story.ID))
	fmt.Printf("  %d commits in %d chapters, %s style\n", story.ParsedCommits, story.ChapterCount, story.Style)
	fmt.Printf("\nRun 'gitstory export %s' to render it as Markdown.\n", shortID(story.ID))
}

// groupWithSpinner runs chapter grouping with a spinner on stderr, since an
// AI-backed run can take a while on long histories
func groupWithSpinner(chapterer chapters.Chapterer, commits []models.Commit, style chapters.StylePreset) ([]chapters.Draft, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan]Grouping commits into chapters[reset]"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]#[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: "[white].[reset]",
			BarStart:      "[blue]|[reset]",
			BarEnd:        "[blue]|[reset]",
		}))

	type grouped struct {
		drafts []chapters.Draft
		err    error
	}
	done := make(chan grouped, 1)
	go func() {
		drafts, err := chapterer.GroupCommits(context.Background(), commits, style)
		done <- grouped{drafts, err}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case res := <-done:
			bar.Finish()
			fmt.Fprintln(os.Stderr)
			return res.drafts, res.err
		case <-ticker.C:
			bar.Add(1)
		}
	}
}

// titleFromPath derives a story title from the import file name
func titleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if base == "" || base == "." {
		return "Untitled Story"
	}
	return base
}
