package conversations

import (
	"github.com/cloudwego/eino/schema"

	"github.com/weathernews-agent/server/internal/agent/location"
	"github.com/weathernews-agent/server/internal/agent/model"
)

// MessagesManager is the graph's view of one session's memory: it records the
// turn's messages and builds the model contexts from them.
type MessagesManager struct {
	memory *ConversationMemory
}

func NewMessagesManager(memory *ConversationMemory) *MessagesManager {
	return &MessagesManager{memory: memory}
}

func (mm *MessagesManager) Memory() *ConversationMemory {
	return mm.memory
}

// =========== Classification ===========

// RecordQuery appends the raw query as a user turn without a location.
func (mm *MessagesManager) RecordQuery(query string) {
	mm.memory.AddUser(query, "")
}

// History returns the full retained turn history as model messages, oldest first.
func (mm *MessagesManager) History() []*schema.Message {
	return model.TurnsToMessages(mm.memory.Turns())
}

// =========== Tools ===========

// ResolveLocation runs the location heuristic against the original query and
// tags memory with the result. The user turn is not appended again.
func (mm *MessagesManager) ResolveLocation(query string) string {
	city := location.Extract(query, mm.memory)
	mm.memory.SetLastLocation(city)
	return city
}

// =========== Synthesis ===========

func (mm *MessagesManager) SaveResponse(content string) {
	mm.memory.AddAssistant(content)
}
