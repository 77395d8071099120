package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leaderkit/core"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr"`
	Password     string        `json:"password,omitempty"`
	DB           int           `json:"db"`
	KeyPrefix    string        `json:"key_prefix"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		KeyPrefix:    "leaderboard",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Cache implements the engine.ScoreCache interface on Redis sorted sets.
// Data structure:
// - {prefix}:{game_id} -> sorted set of userID members scored by their score
//
// A game's set appears implicitly on first ZADD and is never expired or
// evicted by this adapter. Equal scores order by reverse lexical member,
// which is the native ZREVRANGE tie order.
type Cache struct {
	client *redis.Client
	prefix string
}

// New creates a Redis-backed cache with the provided configuration
func New(config Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, config.KeyPrefix), nil
}

// NewWithClient creates a Cache using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "leaderboard"
	}
	return &Cache{client: client, prefix: prefix}
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// gameKey generates the sorted-set key for a game
func (c *Cache) gameKey(game core.GameID) string {
	return fmt.Sprintf("%s:%s", c.prefix, game)
}

// Write sets the member's score, replacing any prior value.
func (c *Cache) Write(ctx context.Context, game core.GameID, user core.UserID, score int64) error {
	err := c.client.ZAdd(ctx, c.gameKey(game), redis.Z{Score: float64(score), Member: string(user)}).Err()
	if err != nil {
		return fmt.Errorf("failed to write score: %w", err)
	}
	return nil
}

// TopN returns up to limit entries ordered by score descending. An absent
// game key yields an empty slice, not an error.
func (c *Cache) TopN(ctx context.Context, game core.GameID, limit int) ([]core.PlayerScore, error) {
	zs, err := c.client.ZRevRangeWithScores(ctx, c.gameKey(game), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read top-n: %w", err)
	}
	out := make([]core.PlayerScore, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, errors.New("unexpected member type in sorted set")
		}
		out = append(out, core.PlayerScore{GameID: game, UserID: core.UserID(member), Score: int64(z.Score)})
	}
	return out, nil
}

// BulkWrite applies the entries as one pipelined batch. Batching is a
// performance device only; concurrent readers may observe a partial batch.
func (c *Cache) BulkWrite(ctx context.Context, game core.GameID, entries []core.PlayerScore) error {
	if len(entries) == 0 {
		return nil
	}
	key := c.gameKey(game)
	pipe := c.client.TxPipeline()
	for _, e := range entries {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(e.Score), Member: string(e.UserID)})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to bulk-write scores: %w", err)
	}
	return nil
}

// Rank returns the 1-based descending rank, or ok=false when the user has no
// entry for the game.
func (c *Cache) Rank(ctx context.Context, game core.GameID, user core.UserID) (int64, bool, error) {
	rank, err := c.client.ZRevRank(ctx, c.gameKey(game), string(user)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read rank: %w", err)
	}
	return rank + 1, true, nil
}
