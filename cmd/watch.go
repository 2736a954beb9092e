package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CrazyForks/waylog-cli/internal/syncer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously sync the latest session",
	Long: `Run a periodic sync loop. Every interval the latest session for this
project is re-read and any new messages are appended to its transcript.

The interval comes from interval_seconds in .waylog.yaml (default 30s).
A failing pass is reported and the loop keeps running; stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&syncProvider, "provider", "", "Provider to watch (claude, codex, gemini)")
	watchCmd.Flags().StringVar(&syncProject, "project", "", "Project directory (default: current directory)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := setupSyncEnv()
	if err != nil {
		return err
	}

	fmt.Printf("👀 Watching %s sessions for %s\n", env.provider.Name(), env.projectDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := syncer.NewWatcher(env.synchronizer, env.cfg.Interval())
	if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
