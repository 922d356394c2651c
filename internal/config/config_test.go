package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SYSTEM_USER_ID", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("EMAIL_BASE_URL", "")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, int64(0), cfg.SystemUserID)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 50, cfg.RecommendationPageSize)
	assert.Equal(t, "http://localhost:9090", cfg.EmailBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYSTEM_USER_ID", "42")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("SWIPE_RATE_LIMIT", "0")
	t.Setenv("SCORING_WORKERS", "not-a-number")
	t.Setenv("CATALOG_CACHE_TTL", "soon")

	cfg := Load()
	assert.Equal(t, int64(42), cfg.SystemUserID)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 0, cfg.SwipeRateLimit)
	assert.Equal(t, 4, cfg.ScoringWorkers)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:            "development",
			DatabaseURL:            "postgres://localhost/kiekky",
			JWTSecret:              defaultJWTSecret,
			RecommendationPageSize: 50,
			ScoringWorkers:         4,
			NotifyWorkers:          2,
			NotifyQueueSize:        256,
			EmailFrom:              "noreply@kiekky.com",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"default secret in production", func(c *Config) { c.Environment = "production" }},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }},
		{"negative system user", func(c *Config) { c.SystemUserID = -1 }},
		{"zero page size", func(c *Config) { c.RecommendationPageSize = 0 }},
		{"zero workers", func(c *Config) { c.NotifyWorkers = 0 }},
		{"negative rate limit", func(c *Config) { c.SwipeRateLimit = -5 }},
		{"push without credentials", func(c *Config) { c.EnablePushNotifications = true }},
		{"email without api key", func(c *Config) { c.EnableEmailNotifications = true }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
