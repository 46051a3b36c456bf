package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/format_prompt.txt
var formatSystemPrompt string

// FormatSystemPrompt is the raw synthesis instruction.
func FormatSystemPrompt() string {
	return strings.TrimSpace(formatSystemPrompt)
}

// RenderSynthesis builds the one-shot synthesis request: the format
// instruction and the tool output as the only user message. Conversation
// history is intentionally absent.
func RenderSynthesis(ctx context.Context, toolOutput string) ([]*schema.Message, error) {
	// placeholders keep braces in tool output from being read as template fields
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.MessagesPlaceholder("tool_output", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(FormatSystemPrompt())},
		"tool_output":     []*schema.Message{schema.UserMessage(toolOutput)},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis prompt render: %w", err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("synthesis prompt render: expected 2 messages, got %d", len(msgs))
	}
	return msgs, nil
}
