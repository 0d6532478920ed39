package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "players.json", cfg.Storage.Path)
	assert.Equal(t, 20, cfg.Lineup.HistoryDepth)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.True(t, cfg.Server.MetricsEnabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
  format: json
storage:
  driver: sqlite
  path: /tmp/lineup.db
server:
  address: "127.0.0.1:9000"
  allowed_origins: ["http://localhost:5173"]
lineup:
  history_depth: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/lineup.db", cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 50, cfg.Lineup.HistoryDepth)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LINEUP_STORAGE_DRIVER", "postgres")
	t.Setenv("LINEUP_STORAGE_DSN", "postgres://lineup@localhost/lineup")
	t.Setenv("LINEUP_LINEUP_HISTORY_DEPTH", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://lineup@localhost/lineup", cfg.Storage.DSN)
	assert.Equal(t, 5, cfg.Lineup.HistoryDepth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.Storage.Driver = "redis" },
			errMsg: "unknown storage driver",
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *Config) { c.Storage.Driver = DriverPostgres },
			errMsg: "storage.dsn is required",
		},
		{
			name:   "sqlite without path",
			mutate: func(c *Config) { c.Storage.Driver = DriverSQLite; c.Storage.Path = "" },
			errMsg: "storage.path is required",
		},
		{
			name:   "zero history depth",
			mutate: func(c *Config) { c.Lineup.HistoryDepth = 0 },
			errMsg: "history_depth must be positive",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			errMsg: "unknown logging format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, Default().Validate())
}
