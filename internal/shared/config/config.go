// Package config holds the infrastructure settings shared by every module:
// HTTP server, MongoDB and Redis.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"localhost"`
	Port         string        `env:"SERVER_PORT" envDefault:"3000"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	CORSOrigins  string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	BodyLimit    int           `env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
}

// Addr returns host:port
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// MongoConfig holds the document store connection settings
type MongoConfig struct {
	URI            string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName   string        `env:"DATABASE_NAME" envDefault:"agency_cms"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"30s"`
}

// RedisConfig holds Redis connection settings. Redis is optional: an empty
// Host disables the content cache.
type RedisConfig struct {
	Host            string        `env:"REDIS_HOST" envDefault:""`
	Port            string        `env:"REDIS_PORT" envDefault:"6379"`
	Password        string        `env:"REDIS_PASSWORD" envDefault:""`
	Database        int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool          `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime time.Duration `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
	ContentCacheTTL time.Duration `env:"CONTENT_CACHE_TTL" envDefault:"5m"`
}

// Enabled reports whether a Redis host has been configured
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// GetAddr returns the Redis address in host:port format
func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Config groups the infrastructure configuration
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

// Load parses all infrastructure settings from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, errors.New("failed to load server configuration: " + err.Error())
	}
	if err := env.Parse(&cfg.Mongo); err != nil {
		return nil, errors.New("failed to load mongodb configuration: " + err.Error())
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.New("failed to load redis configuration: " + err.Error())
	}

	if cfg.Mongo.URI == "" {
		return nil, errors.New("MONGODB_URI environment variable is not set")
	}
	if cfg.Mongo.DatabaseName == "" {
		return nil, errors.New("DATABASE_NAME environment variable is not set")
	}
	return cfg, nil
}
