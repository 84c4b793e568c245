package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the visitor tracking settings
type Config struct {
	CookieName   string        `env:"VISITOR_COOKIE_NAME" envDefault:"visitor_id"`
	CookieTTL    time.Duration `env:"VISITOR_COOKIE_TTL" envDefault:"8760h"`
	MaxIDLength  int           `env:"VISITOR_ID_MAX_LENGTH" envDefault:"128"`
	ActiveWindow time.Duration `env:"VISITOR_ACTIVE_WINDOW" envDefault:"24h"`

	// Candidate cap when listing visitors through a segment expression
	SegmentScanLimit int64 `env:"VISITOR_SEGMENT_SCAN_LIMIT" envDefault:"5000"`

	// Live feed websocket
	FeedBufferSize int           `env:"VISITOR_FEED_BUFFER" envDefault:"64"`
	FeedPingPeriod time.Duration `env:"VISITOR_FEED_PING" envDefault:"30s"`
}

// LoadConfig reads the tracking configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load visitor configuration from environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the values LoadConfig yields on an empty environment
func DefaultConfig() *Config {
	return &Config{
		CookieName:       "visitor_id",
		CookieTTL:        8760 * time.Hour,
		MaxIDLength:      128,
		ActiveWindow:     24 * time.Hour,
		SegmentScanLimit: 5000,
		FeedBufferSize:   64,
		FeedPingPeriod:   30 * time.Second,
	}
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	if c.CookieName == "" {
		return errors.New("visitor_cookie_name is required")
	}
	if c.CookieTTL <= 0 {
		return errors.New("visitor_cookie_ttl must be positive")
	}
	if c.MaxIDLength <= 0 {
		return errors.New("visitor_id_max_length must be positive")
	}
	if c.ActiveWindow <= 0 {
		return errors.New("visitor_active_window must be positive")
	}
	if c.SegmentScanLimit <= 0 {
		return errors.New("visitor_segment_scan_limit must be positive")
	}
	if c.FeedBufferSize <= 0 {
		c.FeedBufferSize = 64
	}
	return nil
}
