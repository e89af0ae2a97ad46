package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/models"
	"github.com/bhdoggett/git-story-sub000/internal/store"
)

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Manage stored stories",
	Long: `Manage the stories in the local database.

Without a subcommand, lists all stories.

Examples:
  gitstory stories                 List all stories
  gitstory stories show a1b2c3d4   Show a story and its chapters
  gitstory stories delete a1b2c3d4 Delete a story`,
	Run: runStoriesList,
}

var storiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a story and its chapters",
	Args:  cobra.ExactArgs(1),
	Run:   runStoriesShow,
}

var storiesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a story",
	Long: `Delete a story with its chapters and commits. The archived raw log is
removed as well once no other story references it.`,
	Args: cobra.ExactArgs(1),
	Run:  runStoriesDelete,
}

func init() {
	storiesCmd.AddCommand(storiesShowCmd)
	storiesCmd.AddCommand(storiesDeleteCmd)
}

func runStoriesList(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	stories, err := c.Store.ListStories()
	if err != nil {
		exitError("failed to list stories: %v", err)
	}

	if len(stories) == 0 {
		fmt.Println("No stories yet")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, s := range stories {
		yellow.Printf("%s ", shortID(s.ID))
		fmt.Printf("%-40s %3d commits %2d chapters  %s\n",
			s.Title, s.ParsedCommits, s.ChapterCount, s.CreatedAt.Format("2006-01-02"))
	}
}

func runStoriesShow(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	story := resolveStory(c, args[0])

	chs, err := c.Store.ListChapters(story.ID)
	if err != nil {
		exitError("failed to load chapters: %v", err)
	}

	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	yellow.Printf("story %s\n", story.ID)
	fmt.Printf("Title:   %s\n", story.Title)
	if story.RepoURL != "" {
		fmt.Printf("Repo:    %s\n", story.RepoURL)
	}
	fmt.Printf("Style:   %s\n", story.Style)
	fmt.Printf("Commits: %d parsed of %d\n", story.ParsedCommits, story.TotalCommits)
	fmt.Printf("Created: %s\n", story.CreatedAt.Format("Mon Jan 2 15:04:05 2006"))
	fmt.Println()

	for _, ch := range chs {
		cyan.Printf("Chapter %d: %s", ch.Position+1, ch.Title)
		fmt.Printf("  (%d commits)\n", ch.CommitCount())
		if ch.Summary != "" {
			fmt.Printf("    %s\n", ch.Summary)
		}
	}
}

func runStoriesDelete(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	story := resolveStory(c, args[0])

	if err := c.Store.DeleteStory(story.ID); err != nil {
		exitError("failed to delete story: %v", err)
	}

	// Drop the archived log once no remaining story references it
	if story.LogHash != "" {
		remaining, err := c.Store.CountStoriesByLogHash(story.LogHash)
		if err == nil && remaining == 0 {
			if err := c.Archive.Delete(story.LogHash); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to remove archived log: %v\n", err)
			}
		}
	}

	fmt.Printf("Deleted story %s (%s)\n", shortID(story.ID), story.Title)
}

// resolveStory finds a story by full ID or unique prefix
func resolveStory(c *cmdContext, idOrPrefix string) *models.Story {
	story, err := c.Store.GetStory(idOrPrefix)
	if err == nil {
		return story
	}
	if !errors.Is(err, store.ErrNotFound) {
		exitError("failed to load story: %v", err)
	}

	stories, err := c.Store.ListStories()
	if err != nil {
		exitError("failed to list stories: %v", err)
	}

	var match *models.Story
	for _, s := range stories {
		if len(idOrPrefix) >= 4 && len(s.ID) >= len(idOrPrefix) && s.ID[:len(idOrPrefix)] == idOrPrefix {
			if match != nil {
				exitError("story ID %q is ambiguous", idOrPrefix)
			}
			match = s
		}
	}
	if match == nil {
		exitError("story %q not found", idOrPrefix)
	}
	return match
}
