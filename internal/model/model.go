// Package model holds the provider-agnostic representation of a chat
// session. Every provider parses its native log format into these types;
// everything downstream (sync, export) only ever sees them.
package model

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Label returns the human-readable form used in transcript headings.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// TokenUsage is the input/output/cached token triple reported by a provider.
type TokenUsage struct {
	Input  int
	Output int
	Cached int
}

// MessageMetadata carries optional per-message details that some providers
// report and others do not.
type MessageMetadata struct {
	// Model used (e.g. "claude-sonnet-4.5", "gemini-2.5-flash")
	Model string

	// Token usage, if the source reports it
	Tokens *TokenUsage

	// Names of tools invoked during this turn (Claude Code)
	ToolCalls []string

	// Free-form thought annotations (Gemini)
	Thoughts []string
}

// Message is one turn in a conversation. Content is always non-empty:
// events that normalize to empty text are dropped during parsing.
type Message struct {
	ID        string
	Timestamp time.Time
	Role      Role
	Content   string
	Metadata  MessageMetadata
}

// Session is one conversation instance tied to one project directory.
// Message order follows source log order after per-provider filtering.
type Session struct {
	SessionID   string
	Provider    string
	ProjectPath string
	StartedAt   time.Time
	UpdatedAt   time.Time
	Messages    []Message
}

// FirstUserMessage returns the first user message, or nil if there is none.
func (s *Session) FirstUserMessage() *Message {
	for i := range s.Messages {
		if s.Messages[i].Role == RoleUser {
			return &s.Messages[i]
		}
	}
	return nil
}

// TotalTokens sums input and output tokens across all messages that carry
// usage data. Returns 0 when no message reports tokens.
func (s *Session) TotalTokens() int {
	total := 0
	for i := range s.Messages {
		if t := s.Messages[i].Metadata.Tokens; t != nil {
			total += t.Input + t.Output
		}
	}
	return total
}
