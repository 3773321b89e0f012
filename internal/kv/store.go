package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "nomad:"
	dialTimeout = 5 * time.Second
)

// Connect opens a client for redisURL and waits up to five seconds for the
// server to answer a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisStore is a string key-value store backed by Redis. Keys are
// namespaced so the database can be shared with other services.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. Values never expire when ttl is zero.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(k string) string {
	return keyPrefix + k
}

// Get returns the value stored under k. ok is false on a miss, which is not an error.
func (s *RedisStore) Get(ctx context.Context, k string) (string, bool, error) {
	val, err := s.client.Get(ctx, key(k)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", k, err)
	}
	return val, true, nil
}

// Set stores value under k with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, k, value string) error {
	if err := s.client.Set(ctx, key(k), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}
