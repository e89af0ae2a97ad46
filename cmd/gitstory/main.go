// Command gitstory turns git log exports into chaptered stories.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/bhdoggett/git-story-sub000/internal/cli"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
