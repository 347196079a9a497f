// Package main migrates the configured database and loads the game, player
// directory and game log CSV exports into it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/app"
	"nba-seer/internal/config"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	backend := flag.String("backend", "", "Storage backend: postgres or sqlite")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database file")
	games := flag.String("games", "", "Comma-separated game table CSV files")
	directory := flag.String("directory", "", "Comma-separated player directory CSV files")
	logs := flag.String("logs", "", "Comma-separated game log CSV files")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Storage.Backend = strings.ToLower(*backend)
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *sqlitePath != "" {
		cfg.Storage.SQLitePath = *sqlitePath
	}
	if *games != "" {
		cfg.Inputs.Games = splitList(*games)
	}
	if *directory != "" {
		cfg.Inputs.Directory = splitList(*directory)
	}
	if *logs != "" {
		cfg.Inputs.GameLogs = splitList(*logs)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Storage.Backend == config.BackendMemory {
		logger.Fatal("ingest needs a persistent backend (--backend postgres or sqlite)")
	}
	in := cfg.Inputs
	if len(in.Games)+len(in.Directory)+len(in.GameLogs) == 0 {
		logger.Fatal("nothing to load: pass --games, --directory or --logs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Projections are not written here
	storageCfg := cfg.Storage
	storageCfg.ClickHouseDSN = ""
	storageCfg.RedisAddr = ""

	metrics := observability.NewMetrics("nba_seer")
	stores, err := app.OpenStores(ctx, storageCfg, logger, metrics)
	if err != nil {
		logger.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	loaded, err := app.LoadInputs(ctx, app.SlateOptions{
		Config:  cfg,
		Stores:  stores,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.WithError(err).Error("ingest failed")
		stores.Close()
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"backend":   cfg.Storage.Backend,
		"games":     loaded.Games,
		"directory": loaded.DirectoryEntries,
		"game_logs": loaded.GameLogRecords,
	}).Info("ingest complete")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
