package syncer

import (
	"context"
	"fmt"
	"time"
)

// Watcher periodically syncs the latest session for a project. There is
// no file-system notification involved: a fixed-interval ticker re-scans,
// and ticks that cannot be delivered on time are dropped, not queued.
type Watcher struct {
	synchronizer *Synchronizer
	interval     time.Duration

	// report receives one line per noteworthy event; defaults to stdout
	report func(format string, args ...any)
}

func NewWatcher(s *Synchronizer, interval time.Duration) *Watcher {
	return &Watcher{
		synchronizer: s,
		interval:     interval,
		report: func(format string, args ...any) {
			fmt.Printf(format+"\n", args...)
		},
	}
}

// Watch runs the periodic loop until the context is canceled. A failing
// pass is reported and the loop continues.
func (w *Watcher) Watch(ctx context.Context) error {
	w.report("⏱  Syncing every %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.syncLatest(); err != nil {
				w.report("⚠️  Sync error: %v", err)
			}
		}
	}
}

// syncLatest syncs only the most recent session file, if any.
func (w *Watcher) syncLatest() error {
	path, err := w.synchronizer.provider.FindLatestSession(w.synchronizer.projectDir)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	status := w.synchronizer.SyncSession(path, false)
	switch status.Kind {
	case StatusSynced:
		w.report("✓ Synced %d new message(s)", status.NewMessages)
	case StatusFailed:
		w.report("❌ %s: %s", path, status.Reason)
	}
	return nil
}
