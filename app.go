package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/weathernews-agent/server/internal/agent/graph"
	"github.com/weathernews-agent/server/internal/agent/graph/conversations"
	"github.com/weathernews-agent/server/internal/agent/graph/nodes"
	"github.com/weathernews-agent/server/internal/agent/model"
	"github.com/weathernews-agent/server/internal/agent/repo"
	"github.com/weathernews-agent/server/internal/agent/session"
	"github.com/weathernews-agent/server/internal/rag"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

// openRedis returns nil when REDIS_URL is unset.
func openRedis(cfg AppConfig) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}
	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	logx.Debug().Msg("Connected to Redis")
	return rdb, nil
}

// newSessionManager wires the agent: shared models and tools, a session
// repository, and one graph per session.
func newSessionManager(ctx context.Context, cfg AppConfig, rdb *redis.Client) (*session.Manager, error) {
	deps, err := graph.NewDependencies(ctx, graph.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Classifier: cfg.Classifier,
		Synthesis:  cfg.Synthesis,
		Weather:    cfg.Weather,
		News:       cfg.News,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build agent dependencies: %w", err)
	}

	var sessions model.SessionRepository
	if rdb != nil {
		ttl, err := cfg.ConversationTTL()
		if err != nil {
			return nil, err
		}
		sessions = repo.NewRedisSessionRepository(rdb, ttl)
	} else {
		logx.Info().Msg("REDIS_URL not set, session memory is kept in process")
		sessions = repo.NewInMemorySessionRepository()
	}

	factory := func(ctx context.Context, mm *conversations.MessagesManager) (graph.Runner, error) {
		return graph.NewRunner(ctx, deps, mm)
	}
	return session.NewManager(sessions, factory, cfg.Conversation.MaxTurns), nil
}

type ragStack struct {
	pipeline *rag.Pipeline
	store    *rag.RedisVectorStore
	docs     *rag.GeminiEmbedder
}

// newRAG wires the question-answering demo. The vector store needs Redis
// with the search module.
func newRAG(ctx context.Context, cfg AppConfig, rdb *redis.Client) (*ragStack, error) {
	if rdb == nil {
		return nil, fmt.Errorf("the rag commands need REDIS_URL pointing at a Redis with search enabled")
	}

	client, err := nodes.NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	chat, err := nodes.NewGeminiChatModel(ctx, client, cfg.Synthesis.ChatModel())
	if err != nil {
		return nil, err
	}

	store := rag.NewRedisVectorStore(rdb, cfg.RAG)
	if err := store.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare vector index: %w", err)
	}

	queries := rag.NewGeminiEmbedder(client, cfg.RAG.EmbeddingModel, cfg.RAG.EmbeddingDim)
	return &ragStack{
		pipeline: rag.NewPipeline(chat, queries, store, cfg.RAG.TopK),
		store:    store,
		docs:     queries.ForDocuments(),
	}, nil
}
