package http

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheTTL = 60 * time.Second

// ResponseCache is a read-through cache over marshaled JSON payloads. It is
// strictly optional: a nil cache disables caching, and any Redis failure is
// treated as a miss so the API keeps answering from the database.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache connects to Redis at addr, or returns nil when addr is
// empty so callers can wire the result in unconditionally.
func NewResponseCache(addr string) *ResponseCache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &ResponseCache{client: client, ttl: cacheTTL}
}

// Get returns the cached payload for key, or ok=false on miss or error.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}
	return body, true
}

// Set stores a payload under key for the cache TTL. Failures are logged and
// swallowed.
func (c *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Ping tests Redis connectivity for the health endpoint.
func (c *ResponseCache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
