package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the document when none is configured.
const DefaultRedisKey = "scoreboard:document"

var errMissingRedisClient = errors.New("redis client is required")

// RedisOptions describes how to reach the redis server.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient constructs a client for the configured server.
func NewRedisClient(options RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})
}

// RedisStore keeps the document JSON under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore binds the store to key on client.
func NewRedisStore(client *redis.Client, key string) (*RedisStore, error) {
	if client == nil {
		return nil, errMissingRedisClient
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

func (store *RedisStore) Load(ctx context.Context) (leaderboard.Document, error) {
	raw, err := store.client.Get(ctx, store.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return leaderboard.Document{}, leaderboard.ErrDocumentMissing
	}
	if err != nil {
		return leaderboard.Document{}, leaderboard.NewStorageError("get", err)
	}
	return leaderboard.DecodeDocument(raw)
}

func (store *RedisStore) Save(ctx context.Context, document leaderboard.Document) error {
	raw, err := leaderboard.EncodeDocument(document)
	if err != nil {
		return leaderboard.NewStorageError("encode", err)
	}
	if err := store.client.Set(ctx, store.key, raw, 0).Err(); err != nil {
		return leaderboard.NewStorageError("set", err)
	}
	return nil
}

func (store *RedisStore) Initialize(ctx context.Context, seed leaderboard.Document) (bool, error) {
	raw, err := leaderboard.EncodeDocument(seed)
	if err != nil {
		return false, leaderboard.NewStorageError("encode", err)
	}
	created, err := store.client.SetNX(ctx, store.key, raw, 0).Result()
	if err != nil {
		return false, leaderboard.NewStorageError("setnx", err)
	}
	return created, nil
}
