package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderkit/core"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestCache_WriteAndTopN(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	cache := NewWithClient(client, "lb")
	ctx := context.Background()

	require.NoError(t, cache.Write(ctx, "g1", "alice", 50))
	require.NoError(t, cache.Write(ctx, "g1", "bob", 70))

	top, err := cache.TopN(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.UserID("bob"), top[0].UserID)
	assert.Equal(t, int64(70), top[0].Score)
	assert.Equal(t, core.UserID("alice"), top[1].UserID)

	// overwrite, not accumulate
	require.NoError(t, cache.Write(ctx, "g1", "alice", 90))
	top, err = cache.TopN(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, core.UserID("alice"), top[0].UserID)
	assert.Equal(t, int64(90), top[0].Score)
}

func TestCache_TopN_AbsentGame(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	cache := NewWithClient(client, "lb")

	top, err := cache.TopN(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestCache_TopN_Limit(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	cache := NewWithClient(client, "lb")
	ctx := context.Background()

	for i, user := range []core.UserID{"a", "b", "c", "d"} {
		require.NoError(t, cache.Write(ctx, "g1", user, int64(10*(i+1))))
	}

	top, err := cache.TopN(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.UserID("d"), top[0].UserID)
	assert.Equal(t, core.UserID("c"), top[1].UserID)
}

func TestCache_BulkWrite(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	cache := NewWithClient(client, "lb")
	ctx := context.Background()

	entries := []core.PlayerScore{
		{GameID: "g2", UserID: "bob", Score: 70},
		{GameID: "g2", UserID: "alice", Score: 50},
	}
	require.NoError(t, cache.BulkWrite(ctx, "g2", entries))

	top, err := cache.TopN(ctx, "g2", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.UserID("bob"), top[0].UserID)

	// empty batch is a no-op
	require.NoError(t, cache.BulkWrite(ctx, "g2", nil))
}

func TestCache_Rank(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	cache := NewWithClient(client, "lb")
	ctx := context.Background()

	require.NoError(t, cache.Write(ctx, "g1", "alice", 50))
	require.NoError(t, cache.Write(ctx, "g1", "bob", 70))

	rank, ok, err := cache.Rank(ctx, "g1", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), rank)

	rank, ok, err = cache.Rank(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), rank)

	_, ok, err = cache.Rank(ctx, "g1", "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = cache.Rank(ctx, "missing-game", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_PrefixIsolation(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	a := NewWithClient(client, "env-a")
	b := NewWithClient(client, "env-b")
	ctx := context.Background()

	require.NoError(t, a.Write(ctx, "g1", "alice", 50))

	top, err := b.TopN(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestConfig_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, "", config.Password)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, "leaderboard", config.KeyPrefix)
	assert.Equal(t, 10, config.PoolSize)
	assert.Equal(t, 2, config.MinIdleConns)
	assert.Equal(t, 5*time.Second, config.DialTimeout)
	assert.Equal(t, 3*time.Second, config.ReadTimeout)
	assert.Equal(t, 3*time.Second, config.WriteTimeout)
}
