package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_HOST", "SERVER_PORT", "MONGODB_URI", "DATABASE_NAME", "REDIS_HOST", "CONTENT_CACHE_TTL"} {
		unsetenv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:3000", cfg.Server.Addr())
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "agency_cms", cfg.Mongo.DatabaseName)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Redis.ContentCacheTTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	unsetenv(t, "SERVER_HOST")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("DATABASE_NAME", "agency_test")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("CONTENT_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, "agency_test", cfg.Mongo.DatabaseName)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.GetAddr())
	assert.Equal(t, time.Minute, cfg.Redis.ContentCacheTTL)
}

func TestNewRedisClient_Options(t *testing.T) {
	client := NewRedisClient(&RedisConfig{Host: "localhost", Port: "6390", Database: 2, PoolSize: 4})
	defer client.Close()

	opts := client.Options()
	assert.Equal(t, "localhost:6390", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 30*time.Minute, opts.ConnMaxIdleTime)
	assert.Nil(t, opts.TLSConfig)
}

// unsetenv removes key for the duration of the test
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
