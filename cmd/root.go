package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "waylog",
	Short: "Waylog - sync AI assistant sessions to readable transcripts",
	Long: `Waylog ingests conversation logs from AI coding assistant CLIs and keeps
a readable markdown transcript per session inside your project.

Supported providers:
  - claude (Claude Code)
  - codex  (Codex CLI)
  - gemini (Gemini CLI)

Get started:
  1. Run a one-off sync:  waylog sync --all
  2. Or keep transcripts fresh while you work:  waylog watch

Transcripts land in <project>/.waylog/ and are safe to commit. Waylog keeps
no database: if its state is lost, it recovers from the transcripts alone.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("waylog %s\n", Version)
	},
}
