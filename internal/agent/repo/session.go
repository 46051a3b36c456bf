package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weathernews-agent/server/internal/agent/model"
	errx "github.com/weathernews-agent/server/internal/core/error"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) turnsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

func (r *RedisSessionRepository) locationKey(sessionID string) string {
	return fmt.Sprintf("session:%s:location", sessionID)
}

// SaveMemory replaces both keys in one transaction and refreshes their TTL.
func (r *RedisSessionRepository) SaveMemory(ctx context.Context, sessionID string, snapshot model.MemorySnapshot) error {
	rows := make([]any, 0, len(snapshot.Turns))
	for i, t := range snapshot.Turns {
		b, err := json.Marshal(t)
		if err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to marshal turn")
			return fmt.Errorf("marshal turn %d: %w", i, err)
		}
		rows = append(rows, b)
	}

	turnsKey := r.turnsKey(sessionID)
	locationKey := r.locationKey(sessionID)

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, turnsKey, locationKey)
		if len(rows) > 0 {
			pipe.RPush(ctx, turnsKey, rows...)
		}
		if snapshot.LastLocation != "" {
			pipe.Set(ctx, locationKey, snapshot.LastLocation, 0)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, turnsKey, r.ttl)
			pipe.Expire(ctx, locationKey, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", turnsKey).Msg("failed to save session memory to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) LoadMemory(ctx context.Context, sessionID string) (*model.MemorySnapshot, error) {
	turnsKey := r.turnsKey(sessionID)

	rows, err := r.rdb.LRange(ctx, turnsKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", turnsKey).Msg("failed to load session turns from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}

	location, err := r.rdb.Get(ctx, r.locationKey(sessionID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session location from redis")
			return nil, errx.WrapRedis(err)
		}
		location = ""
	}

	return &model.MemorySnapshot{Turns: turns, LastLocation: location}, nil
}

func (r *RedisSessionRepository) ClearMemory(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.turnsKey(sessionID), r.locationKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete session memory from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
