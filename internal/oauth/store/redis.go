package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/averlon/tokenbroker/internal/config"
	"github.com/averlon/tokenbroker/internal/oauth/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists token records as JSON values in Redis. Records carry
// no Redis TTL: expiry is the broker's decision (auto-refresh window, delete
// on unrefreshable), and a storage-level TTL would drop the refresh token
// exactly when it is needed.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client, e.g. one backed by
// miniredis in tests
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "token:",
	}
}

func (s *RedisStore) key(userID, provider string) string {
	return s.prefix + userID + ":" + provider
}

// Put stores the record as a single JSON value; SET replaces atomically
func (s *RedisStore) Put(ctx context.Context, record *models.TokenRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.UserID, record.Provider), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store token record: %w", err)
	}
	return nil
}

// Get returns the current record, or (nil, nil) when the key is absent
func (s *RedisStore) Get(ctx context.Context, userID, provider string) (*models.TokenRecord, error) {
	val, err := s.client.Get(ctx, s.key(userID, provider)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token record: %w", err)
	}

	var record models.TokenRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}
	return &record, nil
}

// Delete removes the record; absent keys are a no-op
func (s *RedisStore) Delete(ctx context.Context, userID, provider string) error {
	if err := s.client.Del(ctx, s.key(userID, provider)).Err(); err != nil {
		return fmt.Errorf("failed to delete token record: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
