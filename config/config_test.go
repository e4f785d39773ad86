package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/norm"
	"github.com/syssam/norm/config"
	"github.com/syssam/norm/schema/field"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100*time.Millisecond, cfg.Database.SlowThreshold)
	assert.Equal(t, config.CacheNone, cfg.Cache.Type)
	assert.Nil(t, cfg.RegistryOptions())

	opts, err := cfg.Options(context.Background())
	require.NoError(t, err)
	assert.Empty(t, opts)
	feed, err := cfg.NewFeed()
	require.NoError(t, err)
	assert.Nil(t, feed)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "norm.yaml", `
database:
  uri: mysql://app:secret@db:3306/app
  verbose: true
  stats: true
  slow_threshold: 250ms
query:
  legacy_order_conjunction: true
  table_names: snake_plural
cache:
  type: memory
  ttl: 1m
changefeed:
  brokers: [kafka-1:9092, kafka-2:9092]
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql://app:secret@db:3306/app", cfg.Database.URI)
	assert.True(t, cfg.Database.Verbose)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.SlowThreshold)
	assert.True(t, cfg.Query.LegacyOrderConjunction)
	assert.False(t, cfg.Query.StrictJoins)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Changefeed.Brokers)
	assert.Equal(t, "norm.changes", cfg.Changefeed.Topic)

	opts, err := cfg.Options(context.Background())
	require.NoError(t, err)
	// Debug, Stats, LegacyOrderConjunction, WithCache and CacheTTL.
	assert.Len(t, opts, 5)
	assert.Len(t, cfg.RegistryOptions(), 1)

	feed, err := cfg.NewFeed()
	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.NoError(t, feed.Close())
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "norm.json", `{
		"database": {"uri": "mysql://root@localhost/app", "slow_threshold": 1000000},
		"query": {"strict_joins": true},
		"cache": {"type": "dynamodb", "dynamodb": {"region": "eu-west-1"}}
	}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, cfg.Database.SlowThreshold)
	assert.True(t, cfg.Query.StrictJoins)
	assert.Equal(t, "eu-west-1", cfg.Cache.DynamoDB.Region)
	assert.Equal(t, "norm_cache", cfg.Cache.DynamoDB.Table)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"Format", "norm.toml", "", "unsupported file format"},
		{"Syntax", "norm.yaml", "database: [", "config: parse"},
		{"URI", "norm.yaml", "database:\n  uri: localhost\n", "database.uri"},
		{"CacheType", "norm.yaml", "cache:\n  type: memcached\n", `unknown value "memcached"`},
		{"RedisAddr", "norm.yaml", "cache:\n  type: redis\n", "cache.redis.addr is required"},
		{"TableNames", "norm.json", `{"query": {"table_names": "camel"}}`, "query.table_names"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.file, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("NORM_DATABASE_URI", "mysql://env@db/envdb")
	t.Setenv("NORM_CACHE_TYPE", "memory")

	cfg, err := config.Load(writeFile(t, "norm.yaml", "database:\n  uri: mysql://file@db/filedb\n"))
	require.NoError(t, err)
	assert.Equal(t, "mysql://env@db/envdb", cfg.Database.URI)
	assert.Equal(t, config.CacheMemory, cfg.Cache.Type)
}

func TestFromEnv(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	err := cfg.FromEnv(env(map[string]string{
		"NORM_DATABASE_VERBOSE":        "true",
		"NORM_DATABASE_SLOW_THRESHOLD": "2s",
		"NORM_QUERY_STRICT_JOINS":      "1",
		"NORM_CACHE_TYPE":              "redis",
		"NORM_CACHE_REDIS_ADDR":        "cache:6379",
		"NORM_CACHE_REDIS_DB":          "3",
		"NORM_CHANGEFEED_BROKERS":      " kafka-1:9092, ,kafka-2:9092 ",
		"NORM_CHANGEFEED_TOPIC":        "changes",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.Database.Verbose)
	assert.Equal(t, 2*time.Second, cfg.Database.SlowThreshold)
	assert.True(t, cfg.Query.StrictJoins)
	assert.Equal(t, config.Redis{Addr: "cache:6379", DB: 3}, cfg.Cache.Redis)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Changefeed.Brokers)
	assert.Equal(t, "changes", cfg.Changefeed.Topic)
	require.NoError(t, cfg.Validate())

	err = config.Default().FromEnv(env(map[string]string{
		"NORM_DATABASE_VERBOSE": "maybe",
		"NORM_CACHE_TTL":        "forever",
		"NORM_CACHE_REDIS_DB":   "x",
	}))
	assert.ErrorContains(t, err, "NORM_DATABASE_VERBOSE")
	assert.ErrorContains(t, err, "NORM_CACHE_TTL")
	assert.ErrorContains(t, err, "NORM_CACHE_REDIS_DB")
}

func TestValidateCollectsErrors(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.SlowThreshold = -1
	cfg.Cache.TTL = -1
	cfg.Cache.Type = config.CacheDynamoDB
	cfg.Cache.DynamoDB.Table = ""
	cfg.Changefeed = config.Changefeed{Brokers: []string{"kafka:9092"}}

	err := cfg.Validate()
	for _, want := range []string{
		"slow_threshold must be non-negative",
		"cache.ttl must be non-negative",
		"cache.dynamodb.region is required",
		"cache.dynamodb.table is required",
		"changefeed.topic is required",
	} {
		assert.ErrorContains(t, err, want)
	}
}

type Item struct{ norm.Schema }

func (Item) Fields() []norm.Field {
	return []norm.Field{field.Primary("id")}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Query.TableNames = "snake_plural"
	reg := norm.NewRegistry(cfg.RegistryOptions()...)
	require.NoError(t, reg.Register(Item{}))
	item, _ := reg.Model("Item")
	assert.Equal(t, "items", item.Table())

	cfg.Database.URI = "not a uri"
	_, err := cfg.Open(context.Background(), reg)
	assert.ErrorIs(t, err, norm.ErrNotConnected)
}

// closingCache is a cache backend recording whether it was closed.
type closingCache struct {
	norm.Cache
	closed bool
}

func (c *closingCache) Close() error {
	c.closed = true
	return nil
}

func TestOpenClosesCacheOnFailure(t *testing.T) {
	t.Parallel()

	reg := norm.NewRegistry()
	require.NoError(t, reg.Register(Item{}))
	cfg := config.Default()
	cfg.Database.URI = "not a uri"
	backend := &closingCache{}
	_, err := cfg.Open(context.Background(), reg, norm.WithCache(backend))
	assert.ErrorIs(t, err, norm.ErrNotConnected)
	assert.True(t, backend.closed)
}
