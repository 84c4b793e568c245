package tracker

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the tracker agent settings
type Config struct {
	Endpoint     string        `env:"TRACKER_ENDPOINT" envDefault:"http://localhost:3000/api/track/storage"`
	Interval     time.Duration `env:"TRACKER_INTERVAL" envDefault:"30s"`
	SnapshotFile string        `env:"TRACKER_SNAPSHOT_FILE" envDefault:""`
	SendTimeout  time.Duration `env:"TRACKER_SEND_TIMEOUT" envDefault:"10s"`
	CookieName   string        `env:"VISITOR_COOKIE_NAME" envDefault:"visitor_id"`
	IdentityTTL  time.Duration `env:"TRACKER_IDENTITY_TTL" envDefault:"17520h"`
	KeyPrefix    string        `env:"TRACKER_KEY_PREFIX" envDefault:"tracker:"`
}

// LoadConfig reads the tracker configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load tracker configuration: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("TRACKER_ENDPOINT must not be empty")
	}
	if c.Interval <= 0 {
		return errors.New("TRACKER_INTERVAL must be positive")
	}
	if c.CookieName == "" {
		return errors.New("VISITOR_COOKIE_NAME must not be empty")
	}
	return nil
}
