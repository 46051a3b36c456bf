package rag

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	logx "github.com/weathernews-agent/server/pkg/logger"
)

// embedBatchSize is the largest batch the Gemini embed endpoint accepts.
const embedBatchSize = 100

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// SplitParagraphs returns the non-blank paragraphs of text, trimmed.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var chunks []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks
}

// Ingest splits r into paragraphs, embeds them and adds each to the index.
// It returns the number of passages stored.
func Ingest(ctx context.Context, embedder embedding.Embedder, indexer Indexer, source string, r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", source, err)
	}

	chunks := SplitParagraphs(string(raw))
	stored := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		vectors, err := embedder.EmbedStrings(ctx, batch)
		if err != nil {
			return stored, fmt.Errorf("embed %s: %w", source, err)
		}
		if len(vectors) != len(batch) {
			return stored, fmt.Errorf("embed %s: expected %d vectors, got %d", source, len(batch), len(vectors))
		}

		for i, chunk := range batch {
			if _, err := indexer.Add(ctx, chunk, toFloat32(vectors[i])); err != nil {
				return stored, fmt.Errorf("index %s: %w", source, err)
			}
			stored++
		}
	}

	logx.Info().Str("source", source).Int("passages", stored).Msg("Document ingested")
	return stored, nil
}
