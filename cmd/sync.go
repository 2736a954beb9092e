package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CrazyForks/waylog-cli/internal/config"
	"github.com/CrazyForks/waylog-cli/internal/provider"
	"github.com/CrazyForks/waylog-cli/internal/session"
	"github.com/CrazyForks/waylog-cli/internal/syncer"
)

var (
	syncForce    bool
	syncAll      bool
	syncProvider string
	syncProject  string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync AI assistant sessions to markdown transcripts",
	Long: `Sync conversation logs from an AI coding assistant into per-session
markdown transcripts under the project's output directory.

By default only the most recent session is synced; --all processes every
session the provider knows for this project. Already-synced messages are
never written twice; --force rewrites transcripts from scratch.

Examples:
  waylog sync                   # Sync the latest session
  waylog sync --all             # Sync every session for this project
  waylog sync --all --force     # Rewrite all transcripts from scratch
  waylog sync --provider codex  # Override the configured provider`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Rewrite transcripts even if already synced")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every session, not just the latest")
	syncCmd.Flags().StringVar(&syncProvider, "provider", "", "Provider to sync (claude, codex, gemini)")
	syncCmd.Flags().StringVar(&syncProject, "project", "", "Project directory (default: current directory)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	env, err := setupSyncEnv()
	if err != nil {
		return err
	}

	if !syncAll {
		path, err := env.provider.FindLatestSession(env.projectDir)
		if err != nil {
			return fmt.Errorf("failed to find latest session: %w", err)
		}
		if path == "" {
			fmt.Printf("📁 No sessions found for %s\n", env.provider.Name())
			return nil
		}
		status := env.synchronizer.SyncSession(path, syncForce)
		printResult(syncer.Result{Path: path, Status: status})
		return nil
	}

	results, err := env.synchronizer.SyncAll(syncForce)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("📁 No sessions found for %s\n", env.provider.Name())
		return nil
	}

	var synced, upToDate, skipped, failed int
	for _, result := range results {
		printResult(result)
		switch result.Status.Kind {
		case syncer.StatusSynced:
			synced++
		case syncer.StatusUpToDate:
			upToDate++
		case syncer.StatusSkipped:
			skipped++
		case syncer.StatusFailed:
			failed++
		}
	}

	fmt.Println()
	fmt.Printf("Sync complete: %d synced, %d up to date, %d skipped, %d failed\n",
		synced, upToDate, skipped, failed)
	return nil
}

func printResult(result syncer.Result) {
	name := filepath.Base(result.Path)
	switch result.Status.Kind {
	case syncer.StatusSynced:
		fmt.Printf("  ✓ %s: %s\n", name, result.Status)
	case syncer.StatusUpToDate:
		fmt.Printf("  = %s: %s\n", name, result.Status)
	case syncer.StatusSkipped:
		fmt.Printf("  - %s: %s\n", name, result.Status)
	case syncer.StatusFailed:
		fmt.Printf("  ❌ %s: %s\n", name, result.Status)
	}
}

// syncEnv bundles everything a sync-like command needs.
type syncEnv struct {
	cfg          *config.Config
	projectDir   string
	provider     provider.Provider
	tracker      *session.Tracker
	synchronizer *syncer.Synchronizer
}

// setupSyncEnv resolves the project directory, loads config, selects the
// provider, and restores sync state from existing transcripts.
func setupSyncEnv() (*syncEnv, error) {
	projectDir := syncProject
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		projectDir = wd
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}

	providerName := cfg.Provider
	if syncProvider != "" {
		providerName = syncProvider
	}
	p, err := provider.Get(providerName)
	if err != nil {
		return nil, err
	}

	tracker := session.NewTracker(filepath.Join(projectDir, cfg.OutputDir))

	return &syncEnv{
		cfg:          cfg,
		projectDir:   projectDir,
		provider:     p,
		tracker:      tracker,
		synchronizer: syncer.New(p, projectDir, tracker),
	}, nil
}
