package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 8080
database:
  host: localhost
  user: wallet
  database: wallet_ledger
storage:
  upload_dir: /tmp/uploads
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, "KSH", cfg.Ledger.DefaultCurrency)
	assert.Equal(t, 30, cfg.Reconciliation.HistoryDays)
	assert.Equal(t, "0 30 0 * * *", cfg.Scheduler.ReconcilePreviousDay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, []string{"CRB", "CREDIT_SCORING", "KYC"}, cfg.Services.ServiceNames())
	assert.True(t, cfg.Services.Catalogue["CRB"].Cost.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, cfg.Services.Catalogue["KYC"].Cost.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, cfg.Services.Catalogue["CREDIT_SCORING"].Cost.Equal(decimal.RequireFromString("75.00")))
	assert.Equal(t, 0.85, cfg.Services.Catalogue["CREDIT_SCORING"].SuccessRate)
}

func TestLoad_DevConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.dev.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Notification.Workers)
	assert.Len(t, cfg.Services.Catalogue, 3)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LEDGER_MAX_RETRIES", "5")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, "postgres://wallet:@db.internal:0/wallet_ledger?sslmode=disable", cfg.Database.ConnectionString())
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("MissingDatabaseHost", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
		assert.Error(t, err)
	})

	t.Run("BadServiceCost", func(t *testing.T) {
		body := minimalYAML + `
services:
  catalogue:
    CRB:
      cost: "fifty"
`
		_, err := Load(writeConfig(t, body))
		assert.ErrorContains(t, err, "invalid cost")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})
}
