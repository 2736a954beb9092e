// Package session tracks per-session sync progress for one project. The
// state lives only in memory: transcript files already written are the
// durable record, and the tracker rebuilds itself from their frontmatter.
package session

import "time"

// State records how far one session has been materialized.
type State struct {
	SessionID string
	Provider  string

	// SourcePath is the last known log file location. Best effort: it is
	// unknown after recovery from disk.
	SourcePath string

	// OutputPath is the transcript file for this session.
	OutputPath string

	// SyncedCount is the number of messages, counted from the start of
	// the session, already written to OutputPath.
	SyncedCount int

	LastSyncTime time.Time
}

// ProjectState maps session IDs to their sync state.
type ProjectState struct {
	Sessions map[string]State
}

// Get returns the state for a session, if tracked.
func (p *ProjectState) Get(sessionID string) (State, bool) {
	s, ok := p.Sessions[sessionID]
	return s, ok
}

// Upsert inserts or replaces a session's state.
func (p *ProjectState) Upsert(s State) {
	p.Sessions[s.SessionID] = s
}

// SyncedCount returns the synced message count for a session, 0 if the
// session is untracked.
func (p *ProjectState) SyncedCount(sessionID string) int {
	return p.Sessions[sessionID].SyncedCount
}
