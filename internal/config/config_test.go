package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndRequired(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/storefront")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.ResetConfirmTTL)
	assert.Equal(t, "notifications_feed", cfg.NotifyChannel)
	assert.False(t, cfg.IsProduction())
	assert.Nil(t, cfg.AllowedOrigins())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	require.NoError(t, os.Unsetenv("POSTGRES_URL"))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/storefront")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://shop.example , ,https://admin.example"}
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.AllowedOrigins())
}
