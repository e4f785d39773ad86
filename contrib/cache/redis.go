package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syssam/norm"
)

// RedisClient is the subset of redis.Cmdable used by Redis. It is satisfied
// by *redis.Client, *redis.ClusterClient and *redis.Ring.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// ScanCount is the COUNT hint of the SCAN calls issued by DeletePrefix.
	ScanCount int64
}

// Redis stores entries in Redis. DeletePrefix and Clear walk the key space
// with SCAN and delete the matches in batches.
type Redis struct {
	client    RedisClient
	scanCount int64
	// owned is the client created by NewRedis, closed by Close.
	owned io.Closer
}

// NewRedis connects to a single Redis node and pings it.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("cache: redis address is required")
	}
	if opts.DB < 0 || opts.DB > 15 {
		return nil, fmt.Errorf("cache: redis db must be between 0 and 15, got %d", opts.DB)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: connect to redis %s: %w", opts.Addr, err)
	}
	r := NewRedisFromClient(client, opts.ScanCount)
	r.owned = client
	return r, nil
}

// NewRedisFromClient wraps an existing client. A scanCount of 0 uses 100.
// The client is left open by Close.
func NewRedisFromClient(client RedisClient, scanCount int64) *Redis {
	if scanCount <= 0 {
		scanCount = 100
	}
	return &Redis{client: client, scanCount: scanCount}
}

// Get returns the value stored under key, or nil if the key is missing.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	return b, nil
}

// Set stores value under key. A zero ttl never expires.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache: redis del %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	return r.deleteMatching(ctx, globEscaper.Replace(prefix)+"*")
}

// Clear removes every key written by norm.
func (r *Redis) Clear(ctx context.Context) error {
	return r.deleteMatching(ctx, "norm:*")
}

func (r *Redis) deleteMatching(ctx context.Context, match string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, r.scanCount).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan %s: %w", match, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: redis del %s: %w", match, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the client created by NewRedis. It is safe to call more
// than once.
func (r *Redis) Close() error {
	if r.owned == nil {
		return nil
	}
	err := r.owned.Close()
	r.owned = nil
	if err != nil {
		return fmt.Errorf("cache: redis close: %w", err)
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

var (
	_ norm.Cache  = (*Redis)(nil)
	_ io.Closer   = (*Redis)(nil)
	_ RedisClient = (*redis.Client)(nil)
)
