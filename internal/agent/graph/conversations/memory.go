package conversations

import (
	"strings"

	"github.com/weathernews-agent/server/internal/agent/model"
)

// DefaultMaxTurns is the number of user+assistant exchanges kept in memory.
const DefaultMaxTurns = 3

// ConversationMemory is a sliding window over the most recent turns of one
// session plus the last location the user mentioned. It is owned by a single
// session and is not safe for concurrent use.
type ConversationMemory struct {
	maxTurns     int
	turns        []model.Turn
	lastLocation string
}

func NewConversationMemory(maxTurns int) *ConversationMemory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &ConversationMemory{maxTurns: maxTurns}
}

// Cap is the maximum number of retained turns.
func (m *ConversationMemory) Cap() int {
	return m.maxTurns * 2
}

// AddUser appends a user turn. A non-empty location overwrites the remembered
// one in lower case; an empty location leaves it untouched.
func (m *ConversationMemory) AddUser(text, location string) {
	m.turns = append(m.turns, model.Turn{Role: model.RoleUser, Content: text})
	if location != "" {
		m.lastLocation = strings.ToLower(location)
	}
	m.trim()
}

func (m *ConversationMemory) AddAssistant(text string) {
	m.turns = append(m.turns, model.Turn{Role: model.RoleAssistant, Content: text})
	m.trim()
}

// Turns returns the retained turns, oldest first.
func (m *ConversationMemory) Turns() []model.Turn {
	out := make([]model.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// LastLocation returns the remembered location, or "" when none was set.
func (m *ConversationMemory) LastLocation() string {
	return m.lastLocation
}

// SetLastLocation records an explicitly mentioned location. Empty values are ignored.
func (m *ConversationMemory) SetLastLocation(location string) {
	if location == "" {
		return
	}
	m.lastLocation = strings.ToLower(location)
}

func (m *ConversationMemory) Snapshot() model.MemorySnapshot {
	return model.MemorySnapshot{
		Turns:        m.Turns(),
		LastLocation: m.lastLocation,
	}
}

// Restore replaces the memory content with a stored snapshot, applying the
// same window as live appends.
func (m *ConversationMemory) Restore(s model.MemorySnapshot) {
	m.turns = make([]model.Turn, len(s.Turns))
	copy(m.turns, s.Turns)
	m.lastLocation = strings.ToLower(s.LastLocation)
	m.trim()
}

func (m *ConversationMemory) trim() {
	if limit := m.Cap(); len(m.turns) > limit {
		m.turns = append([]model.Turn(nil), m.turns[len(m.turns)-limit:]...)
	}
}
