package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ListClient is the subset of the go-redis client the repository needs.
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRepository keeps records as JSON in a Redis list, newest at the head.
type RedisRepository[T any] struct {
	client ListClient
	key    string
	limit  int
}

// NewRedisClient opens a go-redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisRepository creates a repository on the list stored at key.
// A positive limit trims the list after each save.
func NewRedisRepository[T any](client ListClient, key string, limit int) *RedisRepository[T] {
	return &RedisRepository[T]{client: client, key: key, limit: limit}
}

// Save pushes the record onto the head of the list.
func (r *RedisRepository[T]) Save(ctx context.Context, record T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := r.client.LPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	if r.limit > 0 {
		if err := r.client.LTrim(ctx, r.key, 0, int64(r.limit-1)).Err(); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}
	return nil
}

// List returns every stored record, newest first.
func (r *RedisRepository[T]) List(ctx context.Context) ([]T, error) {
	values, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]T, 0, len(values))
	for _, v := range values {
		var rec T
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear deletes the whole list.
func (r *RedisRepository[T]) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
