package buffer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the per-room lists.
const DefaultKeyPrefix = "room:"

// RedisStore keeps each room's chunks in a capped Redis list.
// Newest chunks sit at the head of the list.
type RedisStore struct {
	client *redis.Client
	prefix string

	// ttl, when positive, is refreshed on every push so lists of abandoned
	// rooms expire on their own.
	ttl time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	URL       string
	KeyPrefix string
	TTL       time.Duration
}

// NewRedisStore connects to the server at opts.URL and verifies it answers.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client, opts.KeyPrefix, opts.TTL), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(roomID string) string {
	return s.prefix + roomID
}

func (s *RedisStore) Push(ctx context.Context, roomID string, chunk []byte) error {
	key := s.key(roomID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, chunk)
		pipe.LTrim(ctx, key, 0, Capacity-1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("push chunk to %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, roomID string) ([][]byte, error) {
	key := s.key(roomID)
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return [][]byte{}, fmt.Errorf("read buffer %s: %w", key, err)
	}

	chunks := make([][]byte, len(items))
	for i, item := range items {
		chunks[i] = []byte(item)
	}
	slices.Reverse(chunks)
	return chunks, nil
}

func (s *RedisStore) Clear(ctx context.Context, roomID string) error {
	key := s.key(roomID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear buffer %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
