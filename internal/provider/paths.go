package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// homeDir resolves the user's home directory. This is the only hard setup
// failure in the package: without it no data directory can be located.
func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return home, nil
}

// encodeClaudeProjectPath converts a project path into the directory name
// Claude Code uses under ~/.claude/projects: every non-alphanumeric rune
// becomes a hyphen.
func encodeClaudeProjectPath(projectPath string) string {
	var b strings.Builder
	for _, r := range projectPath {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return b.String()
}

// encodeGeminiProjectPath hashes a project path the way Gemini CLI names
// its per-project directories under ~/.gemini/tmp.
func encodeGeminiProjectPath(projectPath string) string {
	sum := sha256.Sum256([]byte(projectPath))
	return hex.EncodeToString(sum[:])
}
