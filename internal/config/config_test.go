package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "UTC", cfg.Dashboard.Timezone)
	assert.True(t, cfg.RateLimit.IngestRPS > cfg.RateLimit.MgmtRPS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIGNAL_CONSOLE_HTTP_ADDR", ":9999")
	t.Setenv("SIGNAL_CONSOLE_DASHBOARD_TZ", "Europe/Berlin")
	t.Setenv("SIGNAL_CONSOLE_DASHBOARD_CACHE_TTL", "90s")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "Europe/Berlin", cfg.Dashboard.Timezone)
	assert.Equal(t, 90*time.Second, cfg.Dashboard.CacheTTL)
}

func TestValidate_AuthRequiresMasterKey(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	cfg.Auth.Enabled = true
	cfg.Auth.MasterKey = ""
	assert.Error(t, cfg.Validate())

	cfg.Auth.MasterKey = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadTimezone(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	cfg.Dashboard.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Dashboard.Timezone = "Mars/Olympus_Mons"
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Dashboard.Timezone = "America/New_York"
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "console", Password: "pw",
		DBName: "signal", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://console:pw@db:5432/signal?sslmode=disable", d.DSN())
}
