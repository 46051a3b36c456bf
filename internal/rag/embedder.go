package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// GeminiEmbedder implements the Eino embedding.Embedder on the Gemini
// embed API.
type GeminiEmbedder struct {
	client   *genai.Client
	model    string
	dim      int
	taskType string
}

func NewGeminiEmbedder(client *genai.Client, model string, dim int) *GeminiEmbedder {
	return &GeminiEmbedder{
		client:   client,
		model:    model,
		dim:      dim,
		taskType: TaskRetrievalQuery,
	}
}

// ForDocuments returns a copy that embeds with the document task type.
func (e *GeminiEmbedder) ForDocuments() *GeminiEmbedder {
	c := *e
	c.taskType = TaskRetrievalDocument
	return &c
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.model
	if o := embedding.GetCommonOptions(&embedding.Options{Model: &model}, opts...); o.Model != nil {
		model = *o.Model
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dim > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(e.dim))
	}

	resp, err := e.client.Models.EmbedContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("embed content: empty embedding at index %d", i)
		}
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)
