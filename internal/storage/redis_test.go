package storage

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreDefaultsKey(t *testing.T) {
	client := NewRedisClient(RedisOptions{Address: "127.0.0.1:6379"})
	defer client.Close()

	store, err := NewRedisStore(client, " ")
	require.NoError(t, err)
	assert.Equal(t, DefaultRedisKey, store.key)
}

func TestRedisStoreReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	store, err := NewRedisStore(client, "scoreboard:test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = store.Load(ctx)
	require.ErrorIs(t, err, leaderboard.ErrStorage)

	err = store.Save(ctx, leaderboard.Document{})
	require.ErrorIs(t, err, leaderboard.ErrStorage)
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil, "")
	assert.Error(t, err)
}
