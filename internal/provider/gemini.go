package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

// GeminiProvider reads Gemini CLI session logs: one JSON document per
// session under ~/.gemini/tmp/<hash>/chats, where <hash> is derived from
// the project path.
type GeminiProvider struct {
	dataDir string // test override
}

func NewGeminiProvider() *GeminiProvider {
	return &GeminiProvider{}
}

func (p *GeminiProvider) Name() string    { return "gemini" }
func (p *GeminiProvider) Command() string { return "gemini" }

func (p *GeminiProvider) DataDir() (string, error) {
	if p.dataDir != "" {
		return p.dataDir, nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".gemini", "tmp"), nil
}

func (p *GeminiProvider) SessionDir(projectPath string) (string, error) {
	dataDir, err := p.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, encodeGeminiProjectPath(projectPath), "chats"), nil
}

func (p *GeminiProvider) FindLatestSession(projectPath string) (string, error) {
	candidates, err := p.AllSessions(projectPath)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}
	return candidates[0], nil
}

func (p *GeminiProvider) AllSessions(projectPath string) ([]string, error) {
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
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(sessionDir, entry.Name()),
			modTime: info.ModTime(),
		})
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

// ParseSession parses a Gemini session document. A malformed document is
// a hard failure; individual messages with no content are dropped.
func (p *GeminiProvider) ParseSession(filePath string) (*model.Session, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var doc geminiSession
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed session document: %w", err)
	}

	var messages []model.Message
	for i := range doc.Messages {
		if msg := p.parseMessage(&doc.Messages[i]); msg != nil {
			messages = append(messages, *msg)
		}
	}

	startedAt, err := time.Parse(time.RFC3339, doc.StartTime)
	if err != nil {
		startedAt = time.Now().UTC()
	} else {
		startedAt = startedAt.UTC()
	}
	updatedAt, err := time.Parse(time.RFC3339, doc.LastUpdated)
	if err != nil {
		updatedAt = startedAt
	} else {
		updatedAt = updatedAt.UTC()
	}

	// Best effort: the hash directory two levels up stands in for the
	// project path, which is not recoverable from the hash itself
	projectPath := ""
	if parent := filepath.Dir(filePath); parent != "." {
		if grand := filepath.Dir(parent); grand != "." {
			projectPath = grand
		}
	}

	return &model.Session{
		SessionID:   doc.SessionID,
		Provider:    p.Name(),
		ProjectPath: projectPath,
		StartedAt:   startedAt,
		UpdatedAt:   updatedAt,
		Messages:    messages,
	}, nil
}

// IsInstalled checks for the data directory; the Gemini CLI itself may
// not be on PATH.
func (p *GeminiProvider) IsInstalled() bool {
	dataDir, err := p.DataDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(dataDir)
	return err == nil
}

func (p *GeminiProvider) parseMessage(msg *geminiMessage) *model.Message {
	var role model.Role
	switch msg.Type {
	case "user":
		role = model.RoleUser
	case "gemini":
		role = model.RoleAssistant
	default:
		return nil
	}

	if msg.Content == "" {
		return nil
	}

	timestamp, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		timestamp = time.Now().UTC()
	} else {
		timestamp = timestamp.UTC()
	}

	thoughts := make([]string, 0, len(msg.Thoughts))
	for _, t := range msg.Thoughts {
		thoughts = append(thoughts, fmt.Sprintf("%s: %s", t.Subject, t.Description))
	}

	var tokens *model.TokenUsage
	if msg.Tokens != nil {
		tokens = &model.TokenUsage{
			Input:  msg.Tokens.Input,
			Output: msg.Tokens.Output,
			Cached: msg.Tokens.Cached,
		}
	}

	return &model.Message{
		ID:        msg.ID,
		Timestamp: timestamp,
		Role:      role,
		Content:   msg.Content,
		Metadata: model.MessageMetadata{
			Model:    msg.Model,
			Tokens:   tokens,
			Thoughts: thoughts,
		},
	}
}

// Gemini JSON session structures

type geminiSession struct {
	SessionID   string          `json:"sessionId"`
	ProjectHash string          `json:"projectHash"`
	StartTime   string          `json:"startTime"`
	LastUpdated string          `json:"lastUpdated"`
	Messages    []geminiMessage `json:"messages"`
}

type geminiMessage struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Model     string          `json:"model"`
	Thoughts  []geminiThought `json:"thoughts"`
	Tokens    *geminiTokens   `json:"tokens"`
}

type geminiThought struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type geminiTokens struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Cached int `json:"cached"`
}
