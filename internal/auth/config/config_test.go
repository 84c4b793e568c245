package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "a-very-long-secret-key-for-tests-only")
	t.Setenv("COOKIE_SAME_SITE", "strict")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "agency-cms", cfg.JWTIssuer)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "Strict", cfg.CookieSameSite)
	assert.Equal(t, "admin_token", cfg.CookieName)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{JWTSecretKey: "secret", AccessTokenTTL: time.Hour, CookieSameSite: "Lax"}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.JWTSecretKey = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CookieSameSite = "sometimes"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AdminEmail = "admin@agency.test"
	assert.EqualError(t, cfg.Validate(), "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")

	cfg.AdminPassword = "changeme123"
	assert.NoError(t, cfg.Validate())
}
