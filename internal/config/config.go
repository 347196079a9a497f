// Package config loads run configuration from an optional YAML file, a .env
// file and SEER_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"nba-seer/internal/features"
)

// Run modes.
const (
	ModeLive     = "live"
	ModeBacktest = "backtest"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// EnvPrefix prefixes every environment override, e.g. SEER_STORAGE_BACKEND.
const EnvPrefix = "SEER"

type Config struct {
	Mode      string        `mapstructure:"mode"`
	SlateDate string        `mapstructure:"slate_date"`
	Workers   int           `mapstructure:"workers"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	OutputDir string        `mapstructure:"output_dir"`
	Storage   StorageConfig `mapstructure:"storage"`
	Inputs    InputsConfig  `mapstructure:"inputs"`
	Scoring   ScoringConfig `mapstructure:"scoring"`
	Server    ServerConfig  `mapstructure:"server"`
}

type StorageConfig struct {
	Backend       string        `mapstructure:"backend"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
	ClickHouseDSN string        `mapstructure:"clickhouse_dsn"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`
}

type InputsConfig struct {
	Games     []string `mapstructure:"games"`
	Directory []string `mapstructure:"directory"`
	GameLogs  []string `mapstructure:"game_logs"`
}

type ScoringConfig struct {
	Points        float64 `mapstructure:"points"`
	Assists       float64 `mapstructure:"assists"`
	OffRebounds   float64 `mapstructure:"off_rebounds"`
	DefRebounds   float64 `mapstructure:"def_rebounds"`
	Steals        float64 `mapstructure:"steals"`
	Blocks        float64 `mapstructure:"blocks"`
	Turnovers     float64 `mapstructure:"turnovers"`
	OutlierCutoff float64 `mapstructure:"outlier_cutoff"`
}

type ServerConfig struct {
	Schedule    string `mapstructure:"schedule"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Load reads configuration. An empty path searches for config.yaml in the
// working directory and ./configs; a missing file falls back to defaults.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Mode = strings.ToLower(cfg.Mode)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeLive)
	v.SetDefault("slate_date", "")
	v.SetDefault("workers", 8)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_dir", "reports")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.sqlite_path", "seer.db")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_ttl", "24h")

	v.SetDefault("inputs.games", []string{})
	v.SetDefault("inputs.directory", []string{})
	v.SetDefault("inputs.game_logs", []string{})

	w := features.DefaultWeights
	v.SetDefault("scoring.points", w.Points)
	v.SetDefault("scoring.assists", w.Assists)
	v.SetDefault("scoring.off_rebounds", w.OffRebounds)
	v.SetDefault("scoring.def_rebounds", w.DefRebounds)
	v.SetDefault("scoring.steals", w.Steals)
	v.SetDefault("scoring.blocks", w.Blocks)
	v.SetDefault("scoring.turnovers", w.Turnovers)
	v.SetDefault("scoring.outlier_cutoff", w.OutlierCutoff)

	// 10:00 Eastern daily, seconds field first
	v.SetDefault("server.schedule", "0 0 10 * * *")
	v.SetDefault("server.metrics_addr", ":9090")
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLive, ModeBacktest:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, _, err := c.Slate(); err != nil {
		return err
	}
	if c.Scoring.OutlierCutoff <= 0 {
		return fmt.Errorf("scoring.outlier_cutoff must be positive, got %v", c.Scoring.OutlierCutoff)
	}
	return nil
}

// Slate parses slate_date (YYYY-MM-DD). ok is false when it is unset.
func (c *Config) Slate() (date time.Time, ok bool, err error) {
	if c.SlateDate == "" {
		return time.Time{}, false, nil
	}
	date, err = time.Parse("2006-01-02", c.SlateDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid slate_date %q: %w", c.SlateDate, err)
	}
	return date, true, nil
}

// Weights returns the configured scoring weights.
func (s ScoringConfig) Weights() features.Weights {
	return features.Weights{
		Points:        s.Points,
		Assists:       s.Assists,
		OffRebounds:   s.OffRebounds,
		DefRebounds:   s.DefRebounds,
		Steals:        s.Steals,
		Blocks:        s.Blocks,
		Turnovers:     s.Turnovers,
		OutlierCutoff: s.OutlierCutoff,
	}
}
