package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, "admin", cfg.Auth.SeedUsername)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, "ledger.events", cfg.AMQP.Exchange)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef-test")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("REDIS_OWNER_CACHE_TTL_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 12, cfg.Auth.BcryptCost, "unparsable ints fall back to the default")
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 5*time.Second, cfg.Redis.OwnerCacheTTL())
}

func TestLoadRejectsWeakSecrets(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "short")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("APP_ENV", "production")
	_, err = Load()
	assert.ErrorContains(t, err, "production")
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_DB")
}
