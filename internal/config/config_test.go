package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-seer/internal/features"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Storage.RedisTTL)
	assert.Equal(t, features.DefaultWeights, cfg.Scoring.Weights())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "seer.yaml")
	content := `
mode: backtest
slate_date: "2018-01-12"
workers: 4
storage:
  backend: sqlite
  sqlite_path: /tmp/seer.db
inputs:
  game_logs:
    - logs_2017.csv
    - logs_2018.csv
scoring:
  points: 1.0
  outlier_cutoff: 3.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SEER_WORKERS", "16")
	t.Setenv("SEER_STORAGE_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeBacktest, cfg.Mode)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/seer.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, []string{"logs_2017.csv", "logs_2018.csv"}, cfg.Inputs.GameLogs)
	assert.Equal(t, 3.0, cfg.Scoring.OutlierCutoff)
	assert.Equal(t, 1.5, cfg.Scoring.Assists)

	date, ok, err := cfg.Slate()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2018, 1, 12, 0, 0, 0, 0, time.UTC), date)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SEER_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SEER_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Mode:      ModeLive,
			Workers:   2,
			LogFormat: "json",
			Storage:   StorageConfig{Backend: BackendMemory},
			Scoring:   ScoringConfig{OutlierCutoff: 2.5},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "replay" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad slate date", func(c *Config) { c.SlateDate = "12/01/2018" }},
		{"zero cutoff", func(c *Config) { c.Scoring.OutlierCutoff = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
