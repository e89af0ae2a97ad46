package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Render a story as Markdown",
	Long: `Render a stored story, its chapters, and its commits as a Markdown
document. The document is written to stdout unless -o is given.`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the document to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	story := resolveStory(c, args[0])

	chs, err := c.Store.ListChapters(story.ID)
	if err != nil {
		exitError("failed to load chapters: %v", err)
	}

	records, err := c.Store.ListCommits(story.ID, 0, 0)
	if err != nil {
		exitError("failed to load commits: %v", err)
	}

	doc := export.Markdown(story, chs, records)

	if exportOutput == "" {
		fmt.Print(doc)
		return
	}

	if err := os.WriteFile(exportOutput, []byte(doc), 0644); err != nil {
		exitError("failed to write %s: %v", exportOutput, err)
	}
	fmt.Printf("Wrote %s\n", exportOutput)
}
