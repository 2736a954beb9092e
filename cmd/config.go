package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CrazyForks/waylog-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration in effect for this project: defaults, merged
with .waylog.yaml and any WAYLOG_* environment overrides.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&syncProject, "project", "", "Project directory (default: current directory)")
}

func runConfig(cmd *cobra.Command, args []string) error {
	projectDir := syncProject
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		projectDir = wd
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}

	fmt.Printf("provider:         %s\n", cfg.Provider)
	fmt.Printf("interval_seconds: %d\n", cfg.IntervalSeconds)
	fmt.Printf("output_dir:       %s\n", cfg.OutputDir)

	configFile := filepath.Join(projectDir, ".waylog.yaml")
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("\nConfig file: %s\n", configFile)
	} else {
		fmt.Printf("\nConfig file: none (defaults in effect)\n")
	}
	return nil
}
