package provider

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

// maxScanTokenSize caps a single JSONL line; Claude Code logs can embed
// large base64 attachments.
const maxScanTokenSize = 10 * 1024 * 1024

// sidechainProbeLines is how many leading non-empty lines are inspected
// when classifying a session file as main vs. sidechain.
const sidechainProbeLines = 10

// ClaudeProvider reads Claude Code session logs: line-delimited JSON under
// a per-project directory derived from the encoded project path.
type ClaudeProvider struct {
	// dataDir overrides the default ~/.claude/projects when non-empty;
	// used by tests
	dataDir string
}

func NewClaudeProvider() *ClaudeProvider {
	return &ClaudeProvider{}
}

func (p *ClaudeProvider) Name() string    { return "claude" }
func (p *ClaudeProvider) Command() string { return "claude" }

func (p *ClaudeProvider) DataDir() (string, error) {
	if p.dataDir != "" {
		return p.dataDir, nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

func (p *ClaudeProvider) SessionDir(projectPath string) (string, error) {
	dataDir, err := p.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, encodeClaudeProjectPath(projectPath)), nil
}

func (p *ClaudeProvider) FindLatestSession(projectPath string) (string, error) {
	candidates, err := p.AllSessions(projectPath)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}
	return candidates[0], nil
}

// AllSessions lists the project's .jsonl files, keeping only main sessions
// and sorting newest modification time first.
func (p *ClaudeProvider) AllSessions(projectPath string) ([]string, error) {
	sessionDir, err := p.SessionDir(projectPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		path := filepath.Join(sessionDir, entry.Name())
		if !p.isMainSession(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: path, modTime: info.ModTime()})
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

// ParseSession parses a Claude Code JSONL file. A line that is not valid
// JSON fails the whole parse.
func (p *ClaudeProvider) ParseSession(filePath string) (*model.Session, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	var messages []model.Message
	var sessionID string
	var projectPath string
	startedAt := time.Now().UTC()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event claudeEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("malformed session line: %w", err)
		}

		// Session identity and working directory come from the earliest
		// event that carries them
		if sessionID == "" && event.SessionID != "" {
			sessionID = event.SessionID
		}
		if projectPath == "" && event.Cwd != "" {
			projectPath = event.Cwd
		}

		if event.Type != "user" && event.Type != "assistant" {
			continue
		}

		msg := p.parseMessage(&event)
		if msg == nil {
			continue
		}
		if len(messages) == 0 {
			startedAt = msg.Timestamp
		}
		messages = append(messages, *msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if sessionID == "" {
		sessionID = strings.TrimSuffix(filepath.Base(filePath), ".jsonl")
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

func (p *ClaudeProvider) IsInstalled() bool {
	_, err := exec.LookPath(p.Command())
	return err == nil
}

// parseMessage converts one user/assistant event into a canonical message.
// Events with no extractable text are dropped.
func (p *ClaudeProvider) parseMessage(event *claudeEvent) *model.Message {
	var role model.Role
	switch event.Type {
	case "user":
		role = model.RoleUser
	case "assistant":
		role = model.RoleAssistant
	default:
		return nil
	}

	if event.Message == nil {
		return nil
	}

	content := event.Message.Content.Text()
	if content == "" {
		return nil
	}

	// Rewrite embedded command tags so transcripts read like the
	// official export
	if role == model.RoleUser {
		content = formatCommandTags(content)
	}

	timestamp, err := time.Parse(time.RFC3339, event.Timestamp)
	if err != nil {
		timestamp = time.Now().UTC()
	} else {
		timestamp = timestamp.UTC()
	}

	var tokens *model.TokenUsage
	if u := event.Message.Usage; u != nil {
		tokens = &model.TokenUsage{
			Input:  u.InputTokens,
			Output: u.OutputTokens,
			Cached: u.CacheReadInputTokens,
		}
	}

	id := event.UUID
	if id == "" {
		id = uuid.NewString()
	}

	return &model.Message{
		ID:        id,
		Timestamp: timestamp,
		Role:      role,
		Content:   content,
		Metadata: model.MessageMetadata{
			Model:     event.Message.Model,
			Tokens:    tokens,
			ToolCalls: event.Message.Content.ToolNames(),
		},
	}
}

// formatCommandTags rewrites Claude Code's embedded command tags.
// A slash-command invocation becomes a quoted one-line form; command
// stdout becomes a quoted block. Only the first occurrence is replaced,
// and command names not starting with "/" are left untouched so arbitrary
// user text survives unmodified.
func formatCommandTags(content string) string {
	const (
		cmdOpen     = "<command-name>"
		cmdClose    = "</command-name>"
		stdoutOpen  = "<local-command-stdout>"
		stdoutClose = "</local-command-stdout>"
	)

	if start := strings.Index(content, cmdOpen); start >= 0 {
		if end := strings.Index(content[start:], cmdClose); end >= 0 {
			cmd := strings.TrimSpace(content[start+len(cmdOpen) : start+end])
			if strings.HasPrefix(cmd, "/") {
				return "> " + cmd
			}
		}
	}

	if start := strings.Index(content, stdoutOpen); start >= 0 {
		if end := strings.Index(content[start:], stdoutClose); end >= 0 {
			out := strings.TrimSpace(content[start+len(stdoutOpen) : start+end])
			return "> ⎿ " + out
		}
	}

	return content
}

// isMainSession reports whether a session file is a main session rather
// than a sidechain, by inspecting its first few non-empty lines. Files
// that never say are treated as main.
func (p *ClaudeProvider) isMainSession(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	checked := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if checked >= sidechainProbeLines {
			break
		}
		checked++

		// Fast path: string check avoids parsing every probe line
		if strings.Contains(line, `"isSidechain":true`) {
			return false
		}
		if strings.Contains(line, `"isSidechain":false`) {
			return true
		}

		var event claudeEvent
		if err := json.Unmarshal([]byte(line), &event); err == nil {
			if event.IsSidechain != nil && *event.IsSidechain {
				return false
			}
		}
	}

	return true
}

// Claude Code JSONL event structures

type claudeEvent struct {
	Type        string         `json:"type"`
	SessionID   string         `json:"sessionId"`
	Cwd         string         `json:"cwd"`
	Timestamp   string         `json:"timestamp"`
	UUID        string         `json:"uuid"`
	IsSidechain *bool          `json:"isSidechain"`
	Message     *claudeMessage `json:"message"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content claudeContent `json:"content"`
	Model   string        `json:"model"`
	Usage   *claudeUsage  `json:"usage"`
}

// claudeContent is either a plain string or an array of typed blocks.
type claudeContent struct {
	text  string
	items []claudeContentItem
}

type claudeContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name"` // for tool_use
}

func (c *claudeContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.text = s
		c.items = nil
		return nil
	}
	var items []claudeContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.text = ""
	c.items = items
	return nil
}

// Text returns the normalized text body: the plain string form, or the
// newline-joined text blocks.
func (c *claudeContent) Text() string {
	if c.items == nil {
		return c.text
	}
	var parts []string
	for _, item := range c.items {
		if item.Type == "text" && item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolNames returns the names of tool_use blocks, in order.
func (c *claudeContent) ToolNames() []string {
	var names []string
	for _, item := range c.items {
		if item.Type == "tool_use" && item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return names
}

type claudeUsage struct {
	InputTokens          int `json:"input_tokens"`
	OutputTokens         int `json:"output_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens"`
}
