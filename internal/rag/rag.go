// Package rag answers questions from an indexed document collection:
// the question is rephrased for search, embedded, matched against a vector
// index, and answered from the retrieved passages only.
package rag

import (
	"context"
)

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 5

// ContextSeparator joins retrieved passages in the generation prompt.
const ContextSeparator = "\n\n---\n\n"

type Config struct {
	Index          string `envconfig:"RAG_INDEX" default:"simple_rag"`
	Prefix         string `envconfig:"RAG_PREFIX" default:"rag:doc:"`
	TopK           int    `envconfig:"RAG_TOP_K" default:"5"`
	EmbeddingModel string `envconfig:"RAG_EMBEDDING_MODEL" default:"gemini-embedding-001"`
	EmbeddingDim   int    `envconfig:"RAG_EMBEDDING_DIM" default:"768"`
}

// Document is one retrieved passage. Distance is the cosine distance to the
// query vector; lower is closer.
type Document struct {
	ID       string
	Content  string
	Distance float64
}

// Answer carries the generated answer together with what produced it.
type Answer struct {
	Question      string
	ExpandedQuery string
	Documents     []Document
	Context       string
	Text          string
}

type Retriever interface {
	// Search returns up to k documents nearest to vector, closest first
	Search(ctx context.Context, vector []float32, k int) ([]Document, error)
}

type Indexer interface {
	// Add stores content with its embedding and returns the document id
	Add(ctx context.Context, content string, vector []float32) (string, error)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
