package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bhdoggett/git-story-sub000/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a gitstory.toml with default settings to the current directory,
as a starting point for configuring storage paths, the API token, and
the AI endpoint.`,
	Run: runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(configPath); err == nil && !initForce {
		exitError("%s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.Default()
	if err := cfg.Save(configPath); err != nil {
		exitError("failed to write config: %v", err)
	}

	fmt.Printf("Wrote %s\n", configPath)
	fmt.Printf("\nEdit it to set storage paths, an API token, and the AI endpoint,\n")
	fmt.Printf("then run 'gitstory serve' or import a log with 'gitstory import'.\n")
}
