// Package cache holds relationship counts in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

type connPool interface {
	GetContext(ctx context.Context) (redis.Conn, error)
	Close() error
}

// RedisCounts caches integer counts with a fixed expiry.
type RedisCounts struct {
	pool connPool
	ttl  time.Duration
}

// NewRedisPool dials addr lazily and keeps a small idle pool.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		MaxActive:   0,
		IdleTimeout: 240 * time.Second,
		Wait:        true,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr,
				redis.DialConnectTimeout(2*time.Second),
				redis.DialReadTimeout(time.Second),
				redis.DialWriteTimeout(time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, lastUsed time.Time) error {
			if time.Since(lastUsed) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedisCounts wraps pool. A non-positive ttl falls back to one minute.
func NewRedisCounts(pool connPool, ttl time.Duration) *RedisCounts {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCounts{pool: pool, ttl: ttl}
}

// Get returns the cached value of key, reporting ok=false on a miss.
func (c *RedisCounts) Get(ctx context.Context, key string) (int64, bool, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("redis get connection: %w", err)
	}
	defer conn.Close()

	value, err := redis.Int64(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with the configured expiry.
func (c *RedisCounts) Set(ctx context.Context, key string, value int64) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("SET", key, value, "EX", int64(c.ttl/time.Second)); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes the given keys.
func (c *RedisCounts) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("DEL", redis.Args{}.AddFlat(keys)...); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *RedisCounts) Ping(ctx context.Context) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis get connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.String(conn.Do("PING")); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (c *RedisCounts) Close() error {
	return c.pool.Close()
}
