package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/intent_prompt.txt
var intentSystemPrompt string

// IntentSystemPrompt is the raw classifier instruction.
func IntentSystemPrompt() string {
	return strings.TrimSpace(intentSystemPrompt)
}

// RenderClassifier renders the classifier instruction followed by the turn
// history through an Eino prompt component, which emits prompt callbacks.
func RenderClassifier(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.MessagesPlaceholder("history", true),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(IntentSystemPrompt())},
		"history":         history,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("classifier prompt render: empty result")
	}
	return msgs, nil
}
