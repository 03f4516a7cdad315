package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "https://portal.example.edu/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.App.Debug)
	assert.Equal(t, 30*time.Second, cfg.Portal.RequestTimeout)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "campus:pref:", cfg.Redis.KeyPrefix)
	assert.True(t, cfg.Watcher.Enabled)
}

func TestLoadRequiresPortalBaseURL(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "https://portal.example.edu/")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load()
	assert.Error(t, err)
}

func TestRedisValidationSkippedWhenDisabled(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "https://portal.example.edu/")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("REDIS_PORT", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Redis.Disabled)
}
