// Package cache stores serialized API responses so repeated catalog queries
// skip the network.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented response cache
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate removes every entry whose key starts with prefix
	Invalidate(ctx context.Context, prefix string) (int, error)
}

// indexKey names the Redis set tracking every key written under a prefix
func indexKey(prefix string) string { return prefix + "keys" }

// RedisStore keeps entries as Redis strings and tracks their keys in a set per prefix
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore caches under keys starting with prefix, e.g. "catalog:"
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to GET %s from Redis: %w", key, err)
	}
	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	if strings.HasPrefix(key, s.prefix) {
		pipe.SAdd(ctx, indexKey(s.prefix), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes the tracked keys under prefix. Only the store's own prefix is indexed.
func (s *RedisStore) Invalidate(ctx context.Context, prefix string) (int, error) {
	if prefix != s.prefix {
		return 0, fmt.Errorf("prefix %q is not managed by this store (%q)", prefix, s.prefix)
	}
	keys, err := s.client.SMembers(ctx, indexKey(prefix)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to get %s from Redis: %w", indexKey(prefix), err)
	}

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, append(keys, indexKey(prefix))...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to execute Redis pipeline for invalidation: %w", err)
	}
	n := int(del.Val())
	if n > 0 && len(keys) > 0 {
		n-- // the index set itself
	}
	return n, nil
}

// MemoryStore is an in-process LRU with per-store TTL, used when Redis is not configured
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryStore holds up to size entries, each expiring after ttl
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

// Set ignores ttl; entries expire after the store-wide TTL
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.lru.Add(key, value)
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, prefix string) (int, error) {
	n := 0
	for _, k := range s.lru.Keys() {
		if strings.HasPrefix(k, prefix) && s.lru.Remove(k) {
			n++
		}
	}
	return n, nil
}
