package rag

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	logx "github.com/weathernews-agent/server/pkg/logger"
)

//go:embed template/expansion_prompt.txt
var expansionPrompt string

//go:embed template/answer_prompt.txt
var answerPrompt string

// Pipeline runs query expansion, retrieval and grounded answer generation.
type Pipeline struct {
	chat      einomodel.BaseChatModel
	embedder  embedding.Embedder
	retriever Retriever
	topK      int

	expansion prompt.ChatTemplate
	answer    prompt.ChatTemplate
}

func NewPipeline(chat einomodel.BaseChatModel, embedder embedding.Embedder, retriever Retriever, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{
		chat:      chat,
		embedder:  embedder,
		retriever: retriever,
		topK:      topK,
		expansion: prompt.FromMessages(schema.FString, schema.UserMessage(strings.TrimSpace(expansionPrompt))),
		answer:    prompt.FromMessages(schema.FString, schema.UserMessage(strings.TrimSpace(answerPrompt))),
	}
}

// Ask answers question from the indexed passages. The rephrased query is
// used only for retrieval; generation sees the original question.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	expanded, err := p.generate(ctx, p.expansion, map[string]any{"query": question})
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}
	if expanded == "" {
		expanded = question
	}
	logx.Debug().Str("question", question).Str("expanded", expanded).Msg("Query expanded")

	vectors, err := p.embedder.EmbedStrings(ctx, []string{expanded})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}

	docs, err := p.retriever.Search(ctx, toFloat32(vectors[0]), p.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}
	contextText := strings.Join(contents, ContextSeparator)
	logx.Debug().Int("documents", len(docs)).Msg("Passages retrieved")

	text, err := p.generate(ctx, p.answer, map[string]any{
		"context":  contextText,
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &Answer{
		Question:      question,
		ExpandedQuery: expanded,
		Documents:     docs,
		Context:       contextText,
		Text:          text,
	}, nil
}

func (p *Pipeline) generate(ctx context.Context, tpl prompt.ChatTemplate, vars map[string]any) (string, error) {
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	out, err := p.chat.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("model returned no message")
	}
	return strings.TrimSpace(out.Content), nil
}
