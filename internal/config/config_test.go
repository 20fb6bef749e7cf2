package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "SOURCES_FILE", "FETCHER", "CONCURRENCY", "FETCH_TIMEOUT_SECONDS",
	"BATCH_TIMEOUT_SECONDS", "CACHE_TTL_SECONDS", "MAX_BODY_BYTES", "CORS_ORIGINS", "ADMIN_SECRET",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "", cfg.SourcesFile)
	assert.Equal(t, FetcherHTTP, cfg.Fetcher)
	assert.Equal(t, 12, cfg.Concurrency)
	assert.Equal(t, 8*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 25*time.Second, cfg.BatchTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.AdminSecret)
	require.NoError(t, cfg.Validate())
}

func TestLoad_AllEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("SOURCES_FILE", "/etc/artify/sources.yaml")
	t.Setenv("FETCHER", "Colly")
	t.Setenv("CONCURRENCY", "4")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "5")
	t.Setenv("BATCH_TIMEOUT_SECONDS", "20")
	t.Setenv("CACHE_TTL_SECONDS", "0")
	t.Setenv("MAX_BODY_BYTES", "2048")
	t.Setenv("CORS_ORIGINS", "https://app.example.org, ,http://localhost:4200")
	t.Setenv("ADMIN_SECRET", " s3cret ")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "/etc/artify/sources.yaml", cfg.SourcesFile)
	assert.Equal(t, FetcherColly, cfg.Fetcher)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 20*time.Second, cfg.BatchTimeout)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL)
	assert.Equal(t, int64(2048), cfg.MaxBodyBytes)
	assert.Equal(t, []string{"http://localhost:4200", "https://app.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, "s3cret", cfg.AdminSecret)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ConcurrencyIsClamped(t *testing.T) {
	clearEnv(t)

	t.Setenv("CONCURRENCY", "500")
	assert.Equal(t, 32, Load().Concurrency)

	t.Setenv("CONCURRENCY", "0")
	assert.Equal(t, 1, Load().Concurrency)

	t.Setenv("CONCURRENCY", "many")
	assert.Equal(t, 12, Load().Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown fetcher", func(c *Config) { c.Fetcher = "curl" }},
		{"batch not above fetch", func(c *Config) { c.BatchTimeout = c.FetchTimeout }},
		{"zero fetch timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"negative ttl", func(c *Config) { c.CacheTTL = -time.Second }},
		{"zero body limit", func(c *Config) { c.MaxBodyBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
