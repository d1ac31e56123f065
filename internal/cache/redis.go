package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mlbdata/pipeline/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache caches schedule metadata lookups so repeated loads of files for
// the same game hit the Stats API once.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("addr", addr).Msg("Connected to Redis")

	return &RedisCache{client: client, ttl: ttl}, nil
}

func metadataKey(gameID int) string {
	return fmt.Sprintf("mlb:game_meta:%d", gameID)
}

// GetGameMetadata returns cached metadata for a game, or (nil, nil) on a miss.
func (c *RedisCache) GetGameMetadata(ctx context.Context, gameID int) (*models.GameMetadata, error) {
	data, err := c.client.Get(ctx, metadataKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata from cache: %w", err)
	}

	var meta models.GameMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		// Stale or corrupt entry: treat as a miss.
		return nil, nil
	}
	return &meta, nil
}

// SetGameMetadata stores metadata for a game with the configured TTL
func (c *RedisCache) SetGameMetadata(ctx context.Context, gameID int, meta *models.GameMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := c.client.Set(ctx, metadataKey(gameID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write metadata to cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
