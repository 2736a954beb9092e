package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CrazyForks/waylog-cli/internal/provider"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider and sync state for this project",
	Long: `Display which providers are installed, where their data lives, and how
many sessions have transcripts in this project.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&syncProject, "project", "", "Project directory (default: current directory)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := setupSyncEnv()
	if err != nil {
		return err
	}

	fmt.Printf("waylog %s\n\n", Version)
	fmt.Printf("Project:    %s\n", env.projectDir)
	fmt.Printf("Provider:   %s (configured)\n", env.cfg.Provider)
	fmt.Printf("Output dir: %s\n", env.tracker.OutputDir())
	fmt.Printf("Tracked sessions: %d\n\n", env.tracker.SessionCount())

	fmt.Println("Providers:")
	for _, name := range provider.Supported() {
		p, err := provider.Get(name)
		if err != nil {
			continue
		}
		installed := "not installed"
		if p.IsInstalled() {
			installed = "installed"
		}
		dataDir, err := p.DataDir()
		dataState := ""
		if err == nil {
			if _, statErr := os.Stat(dataDir); statErr == nil {
				dataState = fmt.Sprintf(", data at %s", dataDir)
			} else {
				dataState = ", no data yet"
			}
		}
		fmt.Printf("  %s: %s%s\n", name, installed, dataState)
	}

	return nil
}
