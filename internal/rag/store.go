package rag

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errx "github.com/weathernews-agent/server/internal/core/error"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

const (
	fieldContent   = "content"
	fieldEmbedding = "embedding"
	fieldDistance  = "distance"
)

// RedisVectorStore keeps passages as hashes under a key prefix and searches
// them through a RediSearch HNSW index (FLOAT32, cosine).
type RedisVectorStore struct {
	rdb    redis.Cmdable
	index  string
	prefix string
	dim    int
}

func NewRedisVectorStore(rdb redis.Cmdable, cfg Config) *RedisVectorStore {
	return &RedisVectorStore{
		rdb:    rdb,
		index:  cfg.Index,
		prefix: cfg.Prefix,
		dim:    cfg.EmbeddingDim,
	}
}

// EnsureIndex creates the search index unless it already exists.
func (s *RedisVectorStore) EnsureIndex(ctx context.Context) error {
	if _, err := s.rdb.FTInfo(ctx, s.index).Result(); err == nil {
		return nil
	}

	err := s.rdb.FTCreate(ctx, s.index,
		&redis.FTCreateOptions{OnHash: true, Prefix: []any{s.prefix}},
		&redis.FieldSchema{FieldName: fieldContent, FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{
			FieldName: fieldEmbedding,
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				HNSWOptions: &redis.FTHNSWOptions{
					Type:           "FLOAT32",
					Dim:            s.dim,
					DistanceMetric: "COSINE",
				},
			},
		},
	).Err()
	if err != nil && !strings.Contains(err.Error(), "Index already exists") {
		logx.Error().Err(err).Str("index", s.index).Msg("failed to create vector index")
		return errx.WrapRedis(err)
	}
	logx.Debug().Str("index", s.index).Int("dim", s.dim).Msg("Vector index ready")
	return nil
}

func (s *RedisVectorStore) Add(ctx context.Context, content string, vector []float32) (string, error) {
	if s.dim > 0 && len(vector) != s.dim {
		return "", fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), s.dim)
	}
	blob, err := serializeVector(vector)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	key := s.prefix + id
	if err := s.rdb.HSet(ctx, key, fieldContent, content, fieldEmbedding, blob).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store document")
		return "", errx.WrapRedis(err)
	}
	return id, nil
}

func (s *RedisVectorStore) Search(ctx context.Context, vector []float32, k int) ([]Document, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	blob, err := serializeVector(vector)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("*=>[KNN %d @%s $vec AS %s]", k, fieldEmbedding, fieldDistance)
	res, err := s.rdb.FTSearchWithArgs(ctx, s.index, query, &redis.FTSearchOptions{
		Return:         []redis.FTSearchReturn{{FieldName: fieldContent}, {FieldName: fieldDistance}},
		SortBy:         []redis.FTSearchSortBy{{FieldName: fieldDistance, Asc: true}},
		Limit:          k,
		Params:         map[string]any{"vec": blob},
		DialectVersion: 2,
	}).Result()
	if err != nil {
		logx.Error().Err(err).Str("index", s.index).Msg("vector search failed")
		return nil, errx.WrapRedis(err)
	}

	docs := make([]Document, 0, len(res.Docs))
	for _, d := range res.Docs {
		dist, _ := strconv.ParseFloat(d.Fields[fieldDistance], 64)
		docs = append(docs, Document{
			ID:       strings.TrimPrefix(d.ID, s.prefix),
			Content:  d.Fields[fieldContent],
			Distance: dist,
		})
	}
	return docs, nil
}

// serializeVector converts a float32 slice to the little-endian byte layout
// RediSearch expects for FLOAT32 vectors.
func serializeVector(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	_ Retriever = (*RedisVectorStore)(nil)
	_ Indexer   = (*RedisVectorStore)(nil)
)
