package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := New(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "posterminal", cfg.App.Name)
	assert.Equal(t, 8888, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "TWPOS-KS-", cfg.Terminal.ReceiptPrefix)
	assert.Equal(t, 5, cfg.Terminal.KitchenThreshold)
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9000
store:
  driver: memory
terminal:
  time_zone: Asia/Jakarta
  denominations: [1000, 2000]
`), 0o600))
	t.Setenv("STORE_DRIVER", "redis")

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr())
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, []float64{1000, 2000}, cfg.Terminal.Denominations)

	loc, err := cfg.Terminal.Zone()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestBadZone(t *testing.T) {
	_, err := Terminal{TimeZone: "Mars/Olympus"}.Zone()
	require.Error(t, err)
}

func TestShippedConfigDoesNotDiscoverFromItself(t *testing.T) {
	cfg, err := New(filepath.Join("..", "..", "..", "config.yml"))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Upstream.BaseURL)
	assert.NotContains(t, cfg.Upstream.WebURL, fmt.Sprintf(":%d", cfg.HTTP.Port))
}
