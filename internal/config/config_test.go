package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":    "test",
		"APP_PORT":   "8080",
		"DB_USER":    "movies",
		"DB_HOST":    "127.0.0.1",
		"DB_PORT":    "3306",
		"DB_NAME":    "movies",
		"JWT_SECRET": "secret",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("MAIL_DELIVERY", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "log", cfg.Mail.Delivery)
	assert.Equal(t, 10, cfg.VerifyTTLMin)
	assert.Equal(t, 8, cfg.PasswordMinLen)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
}

func TestLoadReportsEveryMissingVar(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "twelve")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestLoadRejectsUnknownDelivery(t *testing.T) {
	setRequired(t)
	t.Setenv("MAIL_DELIVERY", "pigeon")
	_, err := Load()
	assert.ErrorContains(t, err, "MAIL_DELIVERY")
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}

func TestLoadCacheConfigKeyStrategy(t *testing.T) {
	t.Setenv("CACHE_KEY_STRATEGY", " Method_Route ")
	assert.Equal(t, CacheKeyMethodRoute, LoadCacheConfig().KeyStrategy)

	t.Setenv("CACHE_KEY_STRATEGY", "by_user")
	assert.Equal(t, CacheKeyRouteQuery, LoadCacheConfig().KeyStrategy)
}

func TestLoadCacheConfigFallbacks(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_TTL", "-5s")
	t.Setenv("CACHE_MAX_BODY_BYTES", "lots")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, 1<<20, cfg.MaxBodyBytes)
	assert.Equal(t, "catalog", cfg.Prefix)
}
