package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/gitlog"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a git log export and report what it contains",
	Long: `Parse a git log export and print a summary of the commits found,
without storing anything.

The file must contain COMMIT_START/COMMIT_END delimited blocks, as produced by:

  git log --reverse --pretty=format:'COMMIT_START%nSHA: %H%nAuthor: %an <%ae>%nDate: %aI%nMessage: %s%nCOMMIT_END'`,
	Args: cobra.ExactArgs(1),
	Run:  runParse,
}

var (
	parseJSON    bool
	parseGitHub  bool
	parseOneline bool
)

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the full parse result as JSON")
	parseCmd.Flags().BoolVar(&parseGitHub, "github", false, "Print parsed commits in GitHub API shape as JSON")
	parseCmd.Flags().BoolVar(&parseOneline, "oneline", false, "List each parsed commit on a single line")
}

func runParse(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitError("%v", err)
	}

	result := gitlog.Parse(string(data))

	if parseGitHub {
		printJSON(gitlog.ToGitHubCommits(result.Commits))
		if result.SuccessfullyParsed == 0 {
			os.Exit(1)
		}
		return
	}

	if parseJSON {
		printJSON(result)
		if result.SuccessfullyParsed == 0 {
			os.Exit(1)
		}
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if result.TotalCommits == 0 {
		exitError("could not parse any commits: check the command you used to generate this file")
	}

	green.Printf("Parsed %d of %d commits\n", result.SuccessfullyParsed, result.TotalCommits)

	if parseOneline {
		for _, commit := range result.Commits {
			yellow.Printf("%s ", shortSHA(commit.SHA))
			fmt.Println(commit.Message)
		}
	}

	if result.HasErrors() {
		red.Printf("%d blocks failed:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  block %d: %s", e.RecordIndex, e.Reason)
			if excerpt := firstLine(e.RawExcerpt); excerpt != "" {
				fmt.Printf("  (%q)", excerpt)
			}
			fmt.Println()
		}
	}

	if result.SuccessfullyParsed == 0 {
		exitError("could not parse any commits: check the command you used to generate this file")
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitError("%v", err)
	}
}

// firstLine trims an excerpt down to one displayable line
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60] + "..."
	}
	return strings.TrimSpace(s)
}
