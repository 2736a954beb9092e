// Package exporter renders canonical sessions into transcript files and
// reads the embedded metadata back for state recovery.
package exporter

import (
	"fmt"
	"os"
	"strings"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

// titleMaxLen is the truncation point for derived titles.
const titleMaxLen = 60

// fallbackTitle is used when a session has no user message.
const fallbackTitle = "Untitled Session"

// Generate renders a full session: frontmatter, title, then every message.
func Generate(session *model.Session) (string, error) {
	var md strings.Builder

	header, err := NewFrontmatter(session).Encode()
	if err != nil {
		return "", err
	}
	md.WriteString(header)

	md.WriteString("# " + ExtractTitle(session.Messages) + "\n\n")

	for i := range session.Messages {
		md.WriteString(FormatMessage(&session.Messages[i]))
		md.WriteString("\n\n")
	}

	return md.String(), nil
}

// FormatMessage renders one message block: role heading with timestamp,
// body, then optional tool and thought sections.
func FormatMessage(message *model.Message) string {
	var md strings.Builder

	emoji := roleEmoji(message.Role)
	md.WriteString(fmt.Sprintf("## %s %s (%s)\n\n", emoji, message.Role.Label(),
		message.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")))

	md.WriteString(message.Content)
	md.WriteString("\n")

	if len(message.Metadata.ToolCalls) > 0 {
		md.WriteString("\n**Tools Used:**\n")
		for _, tool := range message.Metadata.ToolCalls {
			md.WriteString("- `" + tool + "`\n")
		}
	}

	if len(message.Metadata.Thoughts) > 0 {
		md.WriteString("\n<details>\n<summary>💭 Thoughts</summary>\n\n")
		for _, thought := range message.Metadata.Thoughts {
			md.WriteString("- " + thought + "\n")
		}
		md.WriteString("\n</details>\n")
	}

	return md.String()
}

// ExtractTitle derives a title from the first line of the first user
// message, truncated with an ellipsis when long.
func ExtractTitle(messages []model.Message) string {
	for i := range messages {
		if messages[i].Role != model.RoleUser {
			continue
		}
		firstLine := messages[i].Content
		if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
			firstLine = firstLine[:idx]
		}
		if firstLine == "" {
			return fallbackTitle
		}
		runes := []rune(firstLine)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return firstLine
	}
	return fallbackTitle
}

// WriteFile materializes the full session, overwriting any existing file.
func WriteFile(path string, session *model.Session) error {
	content, err := Generate(session)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// AppendMessages appends rendered message blocks to an existing transcript.
// The frontmatter of the file is not touched; the synchronizer decides when
// a full rewrite is needed instead.
func AppendMessages(path string, messages []model.Message) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	for i := range messages {
		if _, err := file.WriteString(FormatMessage(&messages[i]) + "\n\n"); err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}
	return file.Sync()
}

func roleEmoji(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "👤"
	case model.RoleAssistant:
		return "🤖"
	default:
		return "⚙️"
	}
}
