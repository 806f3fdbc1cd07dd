package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "ORD", cfg.Order.NumberPrefix)
	assert.Equal(t, 6, cfg.Order.NumberSuffixDigits)
	assert.False(t, cfg.Tracking.RequirePhone)

	shipping, err := cfg.Order.Shipping()
	require.NoError(t, err)
	assert.True(t, shipping.IsZero())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
order:
  shipping_cost: "25"
  transitions:
    pending: [confirmed, cancelled]
tracking:
  require_phone: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_DATABASE_DSN", "file:test.db")

	cfg, err := Load()
	require.NoError(t, err)

	shipping, err := cfg.Order.Shipping()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(shipping))
	assert.True(t, cfg.Tracking.RequirePhone)
	assert.Equal(t, []string{"confirmed", "cancelled"}, cfg.Order.Transitions["pending"])
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "mysql"},
		Order:    OrderConfig{NumberSuffixDigits: 6, NumberAttempts: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "postgres"
	assert.NoError(t, cfg.Validate())

	cfg.Order.ShippingCost = "-1"
	assert.Error(t, cfg.Validate())

	cfg.Order.ShippingCost = "abc"
	assert.Error(t, cfg.Validate())
}
