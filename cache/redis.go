// Package cache wraps the Redis client behind the hash and set-if-absent
// operations the rest of the service consumes: the game lookup cache, the
// mission list cache and the consumers' idempotency markers.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss marks a normal miss (key or field absent). Anything else
// returned by RedisService is a backend failure, which callers on the read
// path treat as a signal to degrade to the store.
var ErrCacheMiss = errors.New("cache miss")

type RedisService struct {
	client *redis.Client
}

func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

// Get reads one field of a hash key.
func (s *RedisService) Get(ctx context.Context, cacheKey, fieldKey string) (string, error) {
	val, err := s.client.HGet(ctx, cacheKey, fieldKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

// GetAll reads every field of a hash key.
func (s *RedisService) GetAll(ctx context.Context, cacheKey string) (map[string]string, error) {
	return s.client.HGetAll(ctx, cacheKey).Result()
}

// Put upserts one field of a hash key.
func (s *RedisService) Put(ctx context.Context, cacheKey, fieldKey, value string) error {
	return s.client.HSet(ctx, cacheKey, fieldKey, value).Err()
}

// PutAll upserts many fields of a hash key in one round trip.
func (s *RedisService) PutAll(ctx context.Context, cacheKey string, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	return s.client.HSet(ctx, cacheKey, items).Err()
}

// Remove deletes fields from a hash key.
func (s *RedisService) Remove(ctx context.Context, cacheKey string, fieldKeys ...string) error {
	return s.client.HDel(ctx, cacheKey, fieldKeys...).Err()
}

// Delete removes a whole key.
func (s *RedisService) Delete(ctx context.Context, cacheKey string) error {
	return s.client.Del(ctx, cacheKey).Err()
}

// SetIfAbsent sets key to value with a TTL only if the key does not exist.
// Returns true when this call created the key; the first successful creation
// designates the unique first delivery of an event.
func (s *RedisService) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}
