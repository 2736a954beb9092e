package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/CrazyForks/waylog-cli/internal/model"
)

func sampleSession() *model.Session {
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return &model.Session{
		SessionID:   "sess-1",
		Provider:    "claude",
		ProjectPath: "/home/dev/proj",
		StartedAt:   start,
		UpdatedAt:   start.Add(2 * time.Minute),
		Messages: []model.Message{
			{
				ID:        "m1",
				Timestamp: start,
				Role:      model.RoleUser,
				Content:   "How do I implement a CLI tool?",
			},
			{
				ID:        "m2",
				Timestamp: start.Add(time.Minute),
				Role:      model.RoleAssistant,
				Content:   "Start with cobra.",
				Metadata: model.MessageMetadata{
					Model:     "claude-sonnet-4.5",
					Tokens:    &model.TokenUsage{Input: 100, Output: 40, Cached: 10},
					ToolCalls: []string{"Read", "Bash"},
				},
			},
		},
	}
}

func TestExtractTitle(t *testing.T) {
	sess := sampleSession()
	if got := ExtractTitle(sess.Messages); got != "How do I implement a CLI tool?" {
		t.Errorf("ExtractTitle = %q", got)
	}
}

func TestExtractTitleTruncates(t *testing.T) {
	messages := []model.Message{{
		Role:    model.RoleUser,
		Content: strings.Repeat("x", 90),
	}}
	title := ExtractTitle(messages)
	if len(title) > 63 {
		t.Errorf("title length = %d, want <= 63", len(title))
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("long title should end with ellipsis, got %q", title)
	}
}

func TestExtractTitleNoUserMessage(t *testing.T) {
	messages := []model.Message{{Role: model.RoleAssistant, Content: "hello"}}
	if got := ExtractTitle(messages); got != "Untitled Session" {
		t.Errorf("ExtractTitle = %q, want fallback", got)
	}
}

func TestExtractTitleFirstLineOnly(t *testing.T) {
	messages := []model.Message{{
		Role:    model.RoleUser,
		Content: "first line\nsecond line",
	}}
	if got := ExtractTitle(messages); got != "first line" {
		t.Errorf("ExtractTitle = %q, want first line only", got)
	}
}

func TestExtractTitleProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		content := rapid.StringN(-1, 200, -1).Draw(rt, "content")
		messages := []model.Message{{Role: model.RoleUser, Content: content}}
		title := ExtractTitle(messages)
		if title == "" {
			rt.Fatalf("title must never be empty (content %q)", content)
		}
		if n := len([]rune(title)); n > 63 {
			rt.Fatalf("title %q has %d runes, want <= 63", title, n)
		}
		if strings.ContainsRune(title, '\n') {
			rt.Fatalf("title %q spans lines", title)
		}
	})
}

func TestGenerateLayout(t *testing.T) {
	sess := sampleSession()
	md, err := Generate(sess)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.HasPrefix(md, "---\n") {
		t.Error("transcript must start with the frontmatter delimiter")
	}
	for _, want := range []string{
		"provider: claude",
		"session_id: sess-1",
		"project: /home/dev/proj",
		"message_count: 2",
		"total_tokens: 140",
		"# How do I implement a CLI tool?",
		"## 👤 User (2025-03-14 09:00:00 UTC)",
		"## 🤖 Assistant (2025-03-14 09:01:00 UTC)",
		"**Tools Used:**",
		"- `Read`",
		"- `Bash`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestGenerateOmitsZeroTokens(t *testing.T) {
	sess := sampleSession()
	for i := range sess.Messages {
		sess.Messages[i].Metadata.Tokens = nil
	}
	md, err := Generate(sess)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(md, "total_tokens") {
		t.Error("total_tokens should be omitted when no message carries usage")
	}
}

func TestFormatMessageThoughts(t *testing.T) {
	msg := model.Message{
		Role:      model.RoleAssistant,
		Timestamp: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Content:   "done",
		Metadata: model.MessageMetadata{
			Thoughts: []string{"Scanning: reading the tree"},
		},
	}
	block := FormatMessage(&msg)
	if !strings.Contains(block, "<details>") || !strings.Contains(block, "- Scanning: reading the tree") {
		t.Errorf("thoughts section missing:\n%s", block)
	}
}

func TestWriteFileAndParseFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	sess := sampleSession()
	if err := WriteFile(path, sess); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	fm, err := ParseFrontmatter(path)
	if err != nil {
		t.Fatalf("ParseFrontmatter failed: %v", err)
	}
	if fm.SessionID != "sess-1" || fm.Provider != "claude" || fm.MessageCount != 2 {
		t.Errorf("recovered frontmatter = %+v", fm)
	}
	if fm.TotalTokens != 140 {
		t.Errorf("TotalTokens = %d, want 140", fm.TotalTokens)
	}
}

func TestAppendMessagesDoesNotTouchFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	sess := sampleSession()
	if err := WriteFile(path, sess); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	extra := model.Message{
		ID:        "m3",
		Timestamp: time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC),
		Role:      model.RoleUser,
		Content:   "one more thing",
	}
	if err := AppendMessages(path, []model.Message{extra}); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	fm, err := ParseFrontmatter(path)
	if err != nil {
		t.Fatalf("ParseFrontmatter failed: %v", err)
	}
	if fm.MessageCount != 2 {
		t.Errorf("append must not rewrite frontmatter; MessageCount = %d", fm.MessageCount)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "one more thing") {
		t.Error("appended message body missing from transcript")
	}
}

func TestParseFrontmatterRejectsPlainFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.md")
	if err := os.WriteFile(path, []byte("# just notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFrontmatter(path); err == nil {
		t.Fatal("expected error for file without frontmatter")
	}
}
