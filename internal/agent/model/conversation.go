package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Role tags a message for the model boundary. Memory only ever stores
// RoleUser and RoleAssistant turns; RoleSystem comes from prompt rendering.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable entry of conversation memory.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToMessage converts the turn into the Eino message the chat models expect.
func (t Turn) ToMessage() *schema.Message {
	switch t.Role {
	case RoleAssistant:
		return schema.AssistantMessage(t.Content, nil)
	case RoleSystem:
		return schema.SystemMessage(t.Content)
	default:
		return schema.UserMessage(t.Content)
	}
}

// TurnsToMessages converts turns in order.
func TurnsToMessages(turns []Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, t.ToMessage())
	}
	return msgs
}

// MemorySnapshot is the persisted form of a session's conversation memory.
type MemorySnapshot struct {
	Turns        []Turn
	LastLocation string
}

type SessionRepository interface {
	// SaveMemory replaces the stored snapshot of a session
	SaveMemory(ctx context.Context, sessionID string, snapshot MemorySnapshot) error

	// LoadMemory returns the stored snapshot, or an empty one for unknown sessions
	LoadMemory(ctx context.Context, sessionID string) (*MemorySnapshot, error)

	// ClearMemory removes everything stored for a session
	ClearMemory(ctx context.Context, sessionID string) error
}
