package norm

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for caching records looked up by primary key.
// Implementations live in contrib/cache (in-memory, Redis, DynamoDB).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies the cached row of one record.
type CacheKey struct {
	Table string
	Key   any
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s%v", k.Prefix(), k.Key)
}

// Prefix returns the prefix shared by every key of the table.
func (k CacheKey) Prefix() string {
	return "norm:" + k.Table + ":"
}

// encodeRow encodes the raw values of a record in field order.
func encodeRow(r *Record) ([]byte, error) {
	row := make([]any, len(r.values))
	for i, v := range r.values {
		row[i] = v.Raw()
	}
	return msgpack.Marshal(row)
}

func decodeRow(b []byte) ([]any, error) {
	var row []any
	if err := msgpack.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("norm: decode cached row: %w", err)
	}
	return row, nil
}

func (c *Client) cacheGet(ctx context.Context, m *Model, key any) *Record {
	if c.cache == nil {
		return nil
	}
	k := CacheKey{Table: m.table, Key: key}.String()
	b, err := c.cache.Get(ctx, k)
	if err != nil || b == nil {
		if err != nil {
			c.log.DebugContext(ctx, "norm: cache get", "key", k, "error", err)
		}
		return nil
	}
	row, err := decodeRow(b)
	if err != nil {
		c.log.DebugContext(ctx, "norm: cache decode", "key", k, "error", err)
		return nil
	}
	rec, err := c.hydrate(m, row)
	if err != nil {
		c.log.DebugContext(ctx, "norm: cache hydrate", "key", k, "error", err)
		return nil
	}
	return rec
}

func (c *Client) cacheSet(ctx context.Context, r *Record) {
	if c.cache == nil {
		return
	}
	k := CacheKey{Table: r.model.table, Key: r.Key()}.String()
	b, err := encodeRow(r)
	if err == nil {
		err = c.cache.Set(ctx, k, b, c.cacheTTL)
	}
	if err != nil {
		c.log.DebugContext(ctx, "norm: cache set", "key", k, "error", err)
	}
}

func (c *Client) cacheDelete(ctx context.Context, m *Model, key any) {
	if c.cache == nil {
		return
	}
	k := CacheKey{Table: m.table, Key: key}.String()
	if err := c.cache.Delete(ctx, k); err != nil {
		c.log.WarnContext(ctx, "norm: cache delete", "key", k, "error", err)
	}
}

func (c *Client) cacheInvalidate(ctx context.Context, m *Model) {
	if c.cache == nil {
		return
	}
	prefix := CacheKey{Table: m.table}.Prefix()
	if err := c.cache.DeletePrefix(ctx, prefix); err != nil {
		c.log.WarnContext(ctx, "norm: cache invalidate", "prefix", prefix, "error", err)
	}
}
