package exporter

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

// frontmatterDelimiter bounds the metadata block at the top of every
// transcript file.
const frontmatterDelimiter = "---"

// recoveryWindowBytes is how much of a transcript file is read back when
// rebuilding sync state. The frontmatter always fits well within it.
const recoveryWindowBytes = 2048

// Frontmatter is the metadata block embedded at the top of a transcript.
// It is written in full and read back partially: recovery only needs the
// session identity, provider, and synced message count.
type Frontmatter struct {
	Provider     string `yaml:"provider"`
	SessionID    string `yaml:"session_id"`
	Project      string `yaml:"project,omitempty"`
	StartedAt    string `yaml:"started_at"`
	UpdatedAt    string `yaml:"updated_at"`
	MessageCount int    `yaml:"message_count"`
	TotalTokens  int    `yaml:"total_tokens,omitempty"`
}

// NewFrontmatter builds the metadata block for a session.
func NewFrontmatter(session *model.Session) Frontmatter {
	return Frontmatter{
		Provider:     session.Provider,
		SessionID:    session.SessionID,
		Project:      session.ProjectPath,
		StartedAt:    session.StartedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    session.UpdatedAt.UTC().Format(time.RFC3339),
		MessageCount: len(session.Messages),
		TotalTokens:  session.TotalTokens(),
	}
}

// Encode renders the delimited frontmatter block, including both marker
// lines and a trailing blank line.
func (fm Frontmatter) Encode() (string, error) {
	body, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	var b bytes.Buffer
	b.WriteString(frontmatterDelimiter + "\n")
	b.Write(body)
	b.WriteString(frontmatterDelimiter + "\n\n")
	return b.String(), nil
}

// ParseFrontmatter reads back the metadata block of an existing transcript
// file. Only a small leading window of the file is read; content after the
// closing delimiter is never inspected.
func ParseFrontmatter(path string) (*Frontmatter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, recoveryWindowBytes)
	n, err := file.Read(buf)
	if n == 0 && err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	content := buf[:n]

	rest, ok := bytes.CutPrefix(content, []byte(frontmatterDelimiter+"\n"))
	if !ok {
		return nil, fmt.Errorf("no frontmatter in %s", path)
	}
	end := bytes.Index(rest, []byte("\n"+frontmatterDelimiter))
	if end < 0 {
		return nil, fmt.Errorf("unterminated frontmatter in %s", path)
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(rest[:end+1], &fm); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return &fm, nil
}
