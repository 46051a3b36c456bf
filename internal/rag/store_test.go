package rag

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeVector(t *testing.T) {
	blob, err := serializeVector([]float32{1.5, -2})
	require.NoError(t, err)
	require.Len(t, blob, 8)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(blob[0:4])))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(blob[4:8])))
}

// RediSearch is not available in miniredis; only the hash layout is checked here.
func TestRedisVectorStoreAdd(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisVectorStore(rdb, Config{Index: "idx", Prefix: "rag:doc:", EmbeddingDim: 2})

	id, err := store.Add(context.Background(), "Naps matter.", []float32{0.25, 0.75})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	key := "rag:doc:" + id
	assert.Equal(t, "Naps matter.", mr.HGet(key, "content"))
	want, _ := serializeVector([]float32{0.25, 0.75})
	assert.Equal(t, string(want), mr.HGet(key, "embedding"))
}

func TestRedisVectorStoreAddRejectsWrongDimension(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisVectorStore(rdb, Config{Index: "idx", Prefix: "rag:doc:", EmbeddingDim: 3})
	_, err := store.Add(context.Background(), "x", []float32{1})
	assert.Error(t, err)
	assert.Empty(t, mr.Keys())
}

// searchOnly answers FT.SEARCH with a canned result and records the request.
// Any other command panics through the nil embedded interface.
type searchOnly struct {
	redis.Cmdable
	result redis.FTSearchResult
	err    error

	index string
	query string
	opts  *redis.FTSearchOptions
}

func (s *searchOnly) FTSearchWithArgs(ctx context.Context, index string, query string, options *redis.FTSearchOptions) *redis.FTSearchCmd {
	s.index, s.query, s.opts = index, query, options
	cmd := &redis.FTSearchCmd{}
	cmd.SetVal(s.result)
	cmd.SetErr(s.err)
	return cmd
}

func TestRedisVectorStoreSearch(t *testing.T) {
	rdb := &searchOnly{result: redis.FTSearchResult{
		Total: 2,
		Docs: []redis.Document{
			{ID: "rag:doc:a", Fields: map[string]string{"content": "Toddlers nap once a day.", "distance": "0.125"}},
			{ID: "rag:doc:b", Fields: map[string]string{"content": "Bedtime routines help.", "distance": "0.5"}},
		},
	}}
	store := NewRedisVectorStore(rdb, Config{Index: "simple_rag", Prefix: "rag:doc:", EmbeddingDim: 2})

	docs, err := store.Search(context.Background(), []float32{0.5, 1}, 3)
	require.NoError(t, err)

	assert.Equal(t, "simple_rag", rdb.index)
	assert.Equal(t, "*=>[KNN 3 @embedding $vec AS distance]", rdb.query)
	require.NotNil(t, rdb.opts)
	assert.Equal(t, 3, rdb.opts.Limit)
	assert.Equal(t, 2, rdb.opts.DialectVersion)
	assert.Equal(t, []redis.FTSearchSortBy{{FieldName: "distance", Asc: true}}, rdb.opts.SortBy)
	assert.Equal(t, []redis.FTSearchReturn{{FieldName: "content"}, {FieldName: "distance"}}, rdb.opts.Return)
	wantBlob, _ := serializeVector([]float32{0.5, 1})
	assert.Equal(t, wantBlob, rdb.opts.Params["vec"])

	assert.Equal(t, []Document{
		{ID: "a", Content: "Toddlers nap once a day.", Distance: 0.125},
		{ID: "b", Content: "Bedtime routines help.", Distance: 0.5},
	}, docs)
}

func TestRedisVectorStoreSearchDefaultsTopK(t *testing.T) {
	rdb := &searchOnly{}
	store := NewRedisVectorStore(rdb, Config{Index: "idx", Prefix: "rag:doc:"})

	docs, err := store.Search(context.Background(), []float32{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, DefaultTopK, rdb.opts.Limit)
	assert.Contains(t, rdb.query, "KNN 5 ")
}

func TestRedisVectorStoreSearchError(t *testing.T) {
	cause := errors.New("unknown index name")
	store := NewRedisVectorStore(&searchOnly{err: cause}, Config{Index: "idx", Prefix: "rag:doc:"})

	_, err := store.Search(context.Background(), []float32{1}, 2)
	require.ErrorIs(t, err, cause)
}
