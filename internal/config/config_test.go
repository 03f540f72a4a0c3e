package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"APP_ENV", "LOG_LEVEL", "GIN_MODE", "HTTP_PORT", "GRPC_PORT", "API_TOKEN", "STORE",
	"RUN_MIGRATIONS", "DB_CONN_STR", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "HEALTH_POLL_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "9090", cfg.GRPCPort)
	assert.Equal(t, "dev-token", cfg.APIToken)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 10*time.Second, cfg.HealthPollInterval)
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=fraxion sslmode=disable",
		cfg.Database.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "Memory")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("HEALTH_POLL_INTERVAL", "30s")
	t.Setenv("DB_CONN_STR", "postgres://u:p@db:5432/x?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Second, cfg.HealthPollInterval)
	assert.Equal(t, "postgres://u:p@db:5432/x?sslmode=disable", cfg.Database.ConnectionString())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"store", "STORE", "redis"},
		{"bool", "RUN_MIGRATIONS", "maybe"},
		{"int", "DB_MAX_IDLE_CONNS", "five"},
		{"duration", "DB_CONN_MAX_LIFETIME", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
		})
	}
}
