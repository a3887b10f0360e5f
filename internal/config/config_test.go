package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BACKEND_TIMEOUT", "BACKEND_MAX_ATTEMPTS", "CACHE_BACKEND", "LOG_FORMAT", "REFRESH_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 2, cfg.BackendMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "http://backend:3000/api")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("REFRESH_INTERVAL", "60")
	t.Setenv("CACHE_BACKEND", "SQLite")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LAST_VISIT_MODE", "latest_receipt")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://backend:3000/api", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, CacheSQLite, cfg.CacheBackend)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "latest_receipt", cfg.LastVisitMode)
}

func TestValidateConfigCorrectsInvalidValues(t *testing.T) {
	cfg := &Config{CacheBackend: "redis", LogFormat: "pretty", BackendMaxAttempts: 0}
	validateConfig(cfg)

	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2, cfg.BackendMaxAttempts)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "fallback", getEnvString("TEST_STRING", "fallback"))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Config{Timezone: "Local"}).Location())
	assert.Equal(t, time.Local, (&Config{Timezone: "Mars/Olympus"}).Location())
	assert.Equal(t, "UTC", (&Config{Timezone: "UTC"}).Location().String())
}
