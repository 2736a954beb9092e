// Package syncer decides, per session log file, whether to create a new
// transcript, append to an existing one, or do nothing, and performs the
// minimal safe write.
package syncer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CrazyForks/waylog-cli/internal/exporter"
	"github.com/CrazyForks/waylog-cli/internal/model"
	"github.com/CrazyForks/waylog-cli/internal/provider"
	"github.com/CrazyForks/waylog-cli/internal/session"
)

// Status is the terminal outcome of one sync attempt.
type Status struct {
	// Kind is one of StatusSynced, StatusUpToDate, StatusSkipped,
	// StatusFailed
	Kind StatusKind

	// NewMessages is the number of messages written (StatusSynced only)
	NewMessages int

	// Reason explains a failure (StatusFailed only)
	Reason string
}

type StatusKind int

const (
	StatusSynced StatusKind = iota
	StatusUpToDate
	StatusSkipped
	StatusFailed
)

func Synced(n int) Status { return Status{Kind: StatusSynced, NewMessages: n} }

func UpToDate() Status { return Status{Kind: StatusUpToDate} }

func Skipped() Status { return Status{Kind: StatusSkipped} }

func Failed(reason string) Status { return Status{Kind: StatusFailed, Reason: reason} }

func (s Status) String() string {
	switch s.Kind {
	case StatusSynced:
		return fmt.Sprintf("synced %d message(s)", s.NewMessages)
	case StatusUpToDate:
		return "up to date"
	case StatusSkipped:
		return "skipped (no messages)"
	case StatusFailed:
		return "failed: " + s.Reason
	default:
		return "unknown"
	}
}

// Result pairs a session file with its sync outcome.
type Result struct {
	Path   string
	Status Status
}

// Synchronizer runs the sync decision procedure for one project.
type Synchronizer struct {
	provider   provider.Provider
	projectDir string
	tracker    *session.Tracker
}

func New(p provider.Provider, projectDir string, tracker *session.Tracker) *Synchronizer {
	return &Synchronizer{provider: p, projectDir: projectDir, tracker: tracker}
}

// SyncAll syncs every session the provider can find for the project. One
// file's failure never aborts the rest; each file gets its own result.
func (s *Synchronizer) SyncAll(force bool) ([]Result, error) {
	paths, err := s.provider.AllSessions(s.projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sessions: %w", err)
	}

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, Result{Path: path, Status: s.SyncSession(path, force)})
	}
	return results, nil
}

// SyncSession runs the decision procedure for one session log file.
func (s *Synchronizer) SyncSession(sessionPath string, force bool) Status {
	sess, err := s.provider.ParseSession(sessionPath)
	if err != nil {
		return Failed(fmt.Sprintf("parse error: %v", err))
	}

	if len(sess.Messages) == 0 {
		return Skipped()
	}

	outputPath, syncedCount := s.resolveOutput(sess)

	// A vanished transcript means everything must be written again
	if force || (syncedCount > 0 && !fileExists(outputPath)) {
		syncedCount = 0
	}

	total := len(sess.Messages)
	if syncedCount >= total {
		return UpToDate()
	}

	newMessages := sess.Messages[syncedCount:]
	if len(newMessages) == 0 {
		return UpToDate()
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Failed(fmt.Sprintf("failed to create output directory: %v", err))
	}

	if syncedCount == 0 {
		err = exporter.WriteFile(outputPath, sess)
	} else {
		err = exporter.AppendMessages(outputPath, newMessages)
	}
	if err != nil {
		return Failed(fmt.Sprintf("write error: %v", err))
	}

	s.tracker.Update(sess.SessionID, sess.Provider, sessionPath, outputPath, total)

	return Synced(len(newMessages))
}

// resolveOutput returns the transcript path and prior synced count for a
// session, deriving a fresh filename for sessions seen for the first time.
func (s *Synchronizer) resolveOutput(sess *model.Session) (string, int) {
	if state, ok := s.tracker.Get(sess.SessionID); ok {
		return state.OutputPath, state.SyncedCount
	}

	slug := sess.SessionID
	if first := sess.FirstUserMessage(); first != nil {
		slug = Slugify(first.Content)
	}

	timestamp := sess.StartedAt.UTC().Format("2006-01-02_15-04-05Z")
	filename := fmt.Sprintf("%s-%s-%s.md", timestamp, s.provider.Name(), slug)
	return filepath.Join(s.tracker.OutputDir(), filename), 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
