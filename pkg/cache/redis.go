package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotConfigured is returned when no Redis address is set
var ErrNotConfigured = errors.New("REDIS_ADDR environment variable not set")

// RedisClient holds the Redis client connection
type RedisClient struct {
	client *redis.Client
}

// RedisOptions addresses the Redis server used for response caching
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient initializes and returns a new Redis client
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	if opts.Addr == "" {
		return nil, ErrNotConfigured
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("Successfully connected to Redis! Ping response: %s", pong)

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() {
	if c.client != nil {
		c.client.Close()
		log.Println("Redis connection closed.")
	}
}

// GetClient returns the underlying *redis.Client instance
func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}
