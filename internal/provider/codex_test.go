package provider

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

func codexLine(role, text string) string {
	return `{"type":"response_item","timestamp":"2025-03-14T10:00:00Z","payload":{"role":"` + role +
		`","content":[{"type":"input_text","text":` + jsonString(text) + `}]}}`
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func writeCodexSession(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCodexParseSession(t *testing.T) {
	dir := t.TempDir()
	fixture := `{"type":"session_meta","timestamp":"2025-03-14T10:00:00Z","payload":{"cwd":"/home/dev/proj"}}
` + codexLine("user", "fix the tests") + `
` + codexLine("assistant", "On it.") + `
{"type":"token_count","timestamp":"2025-03-14T10:01:00Z"}
`
	path := writeCodexSession(t, dir, "rollout-2025.jsonl", fixture)

	p := NewCodexProvider()
	sess, err := p.ParseSession(path)
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}

	if sess.SessionID != "rollout-2025" {
		t.Errorf("SessionID = %q, want file base name", sess.SessionID)
	}
	if sess.ProjectPath != "/home/dev/proj" {
		t.Errorf("ProjectPath = %q", sess.ProjectPath)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Role != model.RoleUser || sess.Messages[0].Content != "fix the tests" {
		t.Errorf("unexpected first message: %+v", sess.Messages[0])
	}
	if sess.Messages[0].ID == "" {
		t.Error("codex messages should get generated IDs")
	}
	want := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	if !sess.StartedAt.Equal(want) {
		t.Errorf("StartedAt = %v, want %v", sess.StartedAt, want)
	}
}

func TestCodexAdjacentDuplicateSuppression(t *testing.T) {
	dir := t.TempDir()
	fixture := codexLine("user", "same question") + "\n" +
		codexLine("user", "same question") + "\n" +
		codexLine("assistant", "answer") + "\n"
	path := writeCodexSession(t, dir, "dup.jsonl", fixture)

	p := NewCodexProvider()
	sess, err := p.ParseSession(path)
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 after dedup", len(sess.Messages))
	}
}

func TestCodexSystemInjectionSuppression(t *testing.T) {
	dir := t.TempDir()
	fixture := codexLine("user", "<environment_context>cwd: /x</environment_context>") + "\n" +
		codexLine("user", "<INSTRUCTIONS>be helpful</INSTRUCTIONS>") + "\n" +
		codexLine("user", "# AGENTS.md instructions\nalways lint") + "\n" +
		codexLine("user", "an actual question") + "\n"
	path := writeCodexSession(t, dir, "inj.jsonl", fixture)

	p := NewCodexProvider()
	sess, err := p.ParseSession(path)
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 (injections suppressed)", len(sess.Messages))
	}
	if sess.Messages[0].Content != "an actual question" {
		t.Errorf("surviving message = %q", sess.Messages[0].Content)
	}
}

func TestCodexMalformedLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	fixture := "{broken\n" + codexLine("user", "still works") + "\n"
	path := writeCodexSession(t, dir, "mixed.jsonl", fixture)

	p := NewCodexProvider()
	sess, err := p.ParseSession(path)
	if err != nil {
		t.Fatalf("ParseSession should skip malformed lines, got: %v", err)
	}
	if len(sess.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(sess.Messages))
	}
}

func TestCodexProbeProjectPath(t *testing.T) {
	dir := t.TempDir()
	meta := func(cwd string) string {
		return `{"type":"session_meta","timestamp":"2025-03-14T10:00:00Z","payload":{"cwd":"` + cwd + `"}}` + "\n"
	}

	tests := []struct {
		name    string
		cwd     string
		target  string
		matches bool
	}{
		{"exact", "/home/dev/proj", "/home/dev/proj", true},
		{"trailing slash", "/home/dev/proj/", "/home/dev/proj", true},
		{"session under target", "/home/dev/proj/sub", "/home/dev/proj", true},
		{"target under session", "/home/dev", "/home/dev/proj", true},
		{"unrelated", "/srv/other", "/home/dev/proj", false},
		{"root never matches", "/", "/home/dev/proj", false},
	}

	p := NewCodexProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCodexSession(t, dir, tt.name+".jsonl", meta(tt.cwd))
			if got := p.probeProjectPath(path, tt.target); got != tt.matches {
				t.Errorf("probeProjectPath(cwd=%q, target=%q) = %v, want %v",
					tt.cwd, tt.target, got, tt.matches)
			}
		})
	}
}

func TestCodexAllSessionsWalksPartitions(t *testing.T) {
	dataDir := t.TempDir()
	dayDir := filepath.Join(dataDir, "2025", "03", "14")
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatal(err)
	}
	otherDay := filepath.Join(dataDir, "2025", "03", "01")
	if err := os.MkdirAll(otherDay, 0o755); err != nil {
		t.Fatal(err)
	}

	meta := `{"type":"session_meta","timestamp":"2025-03-14T10:00:00Z","payload":{"cwd":"/home/dev/proj"}}` + "\n"
	foreign := `{"type":"session_meta","timestamp":"2025-03-14T10:00:00Z","payload":{"cwd":"/srv/other"}}` + "\n"

	writeCodexSession(t, dayDir, "a.jsonl", meta)
	writeCodexSession(t, otherDay, "b.jsonl", meta)
	writeCodexSession(t, dayDir, "c.jsonl", foreign)

	p := &CodexProvider{dataDir: dataDir}
	paths, err := p.AllSessions("/home/dev/proj")
	if err != nil {
		t.Fatalf("AllSessions failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d sessions, want 2: %v", len(paths), paths)
	}
}

func TestCodexFindLatestSessionWindow(t *testing.T) {
	dataDir := t.TempDir()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	recent := filepath.Join(dataDir, "2025", "03", "13")
	stale := filepath.Join(dataDir, "2025", "01", "01")
	for _, d := range []string{recent, stale} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	meta := `{"type":"session_meta","timestamp":"2025-03-13T10:00:00Z","payload":{"cwd":"/home/dev/proj"}}` + "\n"
	writeCodexSession(t, recent, "recent.jsonl", meta)
	writeCodexSession(t, stale, "stale.jsonl", meta)

	p := &CodexProvider{dataDir: dataDir, now: func() time.Time { return now }}
	latest, err := p.FindLatestSession("/home/dev/proj")
	if err != nil {
		t.Fatalf("FindLatestSession failed: %v", err)
	}
	if filepath.Base(latest) != "recent.jsonl" {
		t.Errorf("latest = %q, want the in-window session", latest)
	}
}
