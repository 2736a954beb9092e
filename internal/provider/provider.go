// Package provider implements the per-source log parsers. Each supported
// AI CLI stores its sessions on disk in its own layout and format; a
// Provider turns those files into the canonical session model.
package provider

import (
	"fmt"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

// Provider is implemented once per supported source format.
type Provider interface {
	// Name returns the canonical provider name (e.g. "claude", "codex")
	Name() string

	// Command returns the CLI executable name for this provider
	Command() string

	// DataDir returns the provider's root data directory
	DataDir() (string, error)

	// SessionDir returns the session directory for a specific project
	SessionDir(projectPath string) (string, error)

	// FindLatestSession returns the newest session file for the project,
	// or "" if none exists
	FindLatestSession(projectPath string) (string, error)

	// AllSessions returns all session files for the project, newest
	// modification time first
	AllSessions(projectPath string) ([]string, error)

	// ParseSession parses a session file into the canonical model
	ParseSession(filePath string) (*model.Session, error)

	// IsInstalled reports whether the CLI tool appears to be present.
	// Informational only; parsing never depends on it.
	IsInstalled() bool
}

// Registry of supported providers. Closed set, selected by explicit
// configuration rather than runtime discovery.
var registry = map[string]func() Provider{
	"claude": func() Provider { return NewClaudeProvider() },
	"codex":  func() Provider { return NewCodexProvider() },
	"gemini": func() Provider { return NewGeminiProvider() },
}

// Get returns the provider with the given name.
func Get(name string) (Provider, error) {
	if factory, ok := registry[name]; ok {
		return factory(), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", name)
}

// Supported returns the names of all supported providers.
func Supported() []string {
	return []string{"claude", "codex", "gemini"}
}
