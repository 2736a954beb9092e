package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CrazyForks/waylog-cli/internal/exporter"
)

// Tracker owns the sync state for one project's output directory. All
// access goes through its lock; the lock guards the in-memory map only,
// not file I/O.
type Tracker struct {
	outputDir string

	mu    sync.Mutex
	state ProjectState
}

// NewTracker creates a tracker and restores state from any transcripts
// already present in outputDir. Files without readable frontmatter are
// skipped; an absent directory just means empty state.
func NewTracker(outputDir string) *Tracker {
	t := &Tracker{
		outputDir: outputDir,
		state:     ProjectState{Sessions: make(map[string]State)},
	}
	t.restoreFromDisk()
	return t
}

// OutputDir returns the transcript directory this tracker scans.
func (t *Tracker) OutputDir() string {
	return t.outputDir
}

// Get returns the state for a session, if tracked.
func (t *Tracker) Get(sessionID string) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Get(sessionID)
}

// SessionCount returns how many sessions are currently tracked.
func (t *Tracker) SessionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.state.Sessions)
}

// Update records a session's sync progress after a successful write.
func (t *Tracker) Update(sessionID, provider, sourcePath, outputPath string, syncedCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Upsert(State{
		SessionID:    sessionID,
		Provider:     provider,
		SourcePath:   sourcePath,
		OutputPath:   outputPath,
		SyncedCount:  syncedCount,
		LastSyncTime: time.Now().UTC(),
	})
}

// restoreFromDisk rebuilds the state map from transcript frontmatter. Any
// file that cannot be read or parsed degrades recovery for that session
// only.
func (t *Tracker) restoreFromDisk() {
	entries, err := os.ReadDir(t.outputDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(t.outputDir, entry.Name())
		fm, err := exporter.ParseFrontmatter(path)
		if err != nil || fm.SessionID == "" {
			continue
		}
		t.state.Upsert(State{
			SessionID:   fm.SessionID,
			Provider:    fm.Provider,
			OutputPath:  path,
			SyncedCount: fm.MessageCount,
			// SourcePath and LastSyncTime are unknown after recovery;
			// both are advisory only
		})
	}
}
