package provider

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

// cwdProbeLines is how many leading lines are inspected when deciding
// whether a session file belongs to the target project.
const cwdProbeLines = 50

// latestWindowDays bounds the partition scan for latest-only queries.
const latestWindowDays = 7

// CodexProvider reads Codex session logs: line-delimited JSON under a
// global date-partitioned directory (~/.codex/sessions/YYYY/MM/DD). Files
// are matched to a project by probing their recorded working directory.
type CodexProvider struct {
	dataDir string // test override
	now     func() time.Time
}

func NewCodexProvider() *CodexProvider {
	return &CodexProvider{now: func() time.Time { return time.Now().UTC() }}
}

func (p *CodexProvider) timeNow() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now().UTC()
}

func (p *CodexProvider) Name() string    { return "codex" }
func (p *CodexProvider) Command() string { return "codex" }

func (p *CodexProvider) DataDir() (string, error) {
	if p.dataDir != "" {
		return p.dataDir, nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codex", "sessions"), nil
}

// SessionDir returns today's partition directory.
func (p *CodexProvider) SessionDir(projectPath string) (string, error) {
	dataDir, err := p.DataDir()
	if err != nil {
		return "", err
	}
	now := p.timeNow()
	return filepath.Join(dataDir, now.Format("2006"), now.Format("01"), now.Format("02")), nil
}

// FindLatestSession scans only the last few days of partitions, which is
// enough for an active session and much cheaper than a full walk.
func (p *CodexProvider) FindLatestSession(projectPath string) (string, error) {
	dataDir, err := p.DataDir()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return "", nil
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate

	now := p.timeNow()
	for daysAgo := 0; daysAgo < latestWindowDays; daysAgo++ {
		date := now.AddDate(0, 0, -daysAgo)
		dayDir := filepath.Join(dataDir, date.Format("2006"), date.Format("01"), date.Format("02"))

		entries, err := os.ReadDir(dayDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
				continue
			}
			path := filepath.Join(dayDir, entry.Name())
			if !p.probeProjectPath(path, projectPath) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			candidates = append(candidates, candidate{path: path, modTime: info.ModTime()})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	if len(candidates) == 0 {
		return "", nil
	}
	return candidates[0].path, nil
}

// AllSessions walks every partition and keeps files whose recorded working
// directory matches the project, newest modification time first.
func (p *CodexProvider) AllSessions(projectPath string) ([]string, error) {
	dataDir, err := p.DataDir()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return nil, nil
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate

	err = filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}
		if !p.probeProjectPath(path, projectPath) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		candidates = append(candidates, candidate{path: path, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk sessions directory: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths, nil
}

// ParseSession parses a Codex JSONL file. Malformed lines are skipped.
func (p *CodexProvider) ParseSession(filePath string) (*model.Session, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	sessionID := strings.TrimSuffix(filepath.Base(filePath), ".jsonl")
	var messages []model.Message
	var projectPath string
	startedAt := time.Now().UTC()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event codexEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		switch event.Type {
		case "session_meta", "turn_context":
			if event.Payload != nil && event.Payload.Cwd != "" {
				projectPath = event.Payload.Cwd
			}
		case "response_item":
			if event.Payload == nil {
				continue
			}
			msg := p.parseResponseItem(event.Payload, event.Timestamp)
			if msg == nil {
				continue
			}
			// Codex often logs the same turn twice in a row
			if last := len(messages) - 1; last >= 0 &&
				messages[last].Role == msg.Role && messages[last].Content == msg.Content {
				continue
			}
			if len(messages) == 0 {
				startedAt = msg.Timestamp
			}
			messages = append(messages, *msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	updatedAt := startedAt
	if len(messages) > 0 {
		updatedAt = messages[len(messages)-1].Timestamp
	}

	return &model.Session{
		SessionID:   sessionID,
		Provider:    p.Name(),
		ProjectPath: projectPath,
		StartedAt:   startedAt,
		UpdatedAt:   updatedAt,
		Messages:    messages,
	}, nil
}

func (p *CodexProvider) IsInstalled() bool {
	_, err := exec.LookPath(p.Command())
	return err == nil
}

// probeProjectPath reports whether a session file belongs to the target
// project by inspecting the working directory recorded in its leading
// lines. Exact, subdirectory, and ancestor matches count; a match against
// the filesystem root is rejected.
func (p *CodexProvider) probeProjectPath(filePath, targetProjectPath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()

	target := normalizePath(targetProjectPath)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	checked := 0
	for scanner.Scan() {
		if checked >= cwdProbeLines {
			break
		}
		checked++

		var event codexEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Payload == nil || event.Payload.Cwd == "" {
			continue
		}

		sessionCwd := normalizePath(event.Payload.Cwd)
		if sessionCwd == target {
			return true
		}
		// Subdirectory either way, guarding against matching "/"
		if strings.HasPrefix(target, sessionCwd) && len(sessionCwd) > 1 {
			return true
		}
		if strings.HasPrefix(sessionCwd, target) && len(target) > 1 {
			return true
		}
		// A recorded cwd that definitely does not match settles it
		return false
	}
	return false
}

func normalizePath(p string) string {
	return strings.TrimRight(p, `/\`)
}

// parseResponseItem converts one response_item payload to a canonical
// message, suppressing the synthetic "user" events Codex injects.
func (p *CodexProvider) parseResponseItem(payload *codexPayload, timestamp string) *model.Message {
	var role model.Role
	switch payload.Role {
	case "user":
		role = model.RoleUser
	case "assistant":
		role = model.RoleAssistant
	default:
		return nil
	}

	var parts []string
	for _, item := range payload.Content {
		if item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	content := strings.Join(parts, "\n")
	if content == "" {
		return nil
	}

	// Codex logs environment context and AGENTS.md instructions as user
	// messages; they are not conversation
	if role == model.RoleUser {
		if strings.Contains(content, "<environment_context>") {
			return nil
		}
		if strings.Contains(content, "<INSTRUCTIONS>") ||
			strings.Contains(content, "# AGENTS.md instructions") {
			return nil
		}
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	return &model.Message{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Role:      role,
		Content:   content,
	}
}

// Codex JSONL event structures

type codexEvent struct {
	Type      string        `json:"type"`
	Timestamp string        `json:"timestamp"`
	Payload   *codexPayload `json:"payload"`
}

type codexPayload struct {
	Role    string         `json:"role"`
	Cwd     string         `json:"cwd"`
	Content []codexContent `json:"content"`
}

type codexContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
