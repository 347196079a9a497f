// Package main regenerates a slate report from projections already stored in
// ClickHouse or the Redis cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nba-seer/internal/app"
	"nba-seer/internal/config"
	"nba-seer/internal/logging"
	"nba-seer/internal/reporting"
	"nba-seer/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	date := flag.String("date", "", "Slate date YYYY-MM-DD (required)")
	outputDir := flag.String("output-dir", "", "Output directory for reports")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", "", "Redis address for the projection cache")
	topN := flag.Int("top", reporting.DefaultTopN, "Projections listed in the Markdown summary")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickHouseDSN = *clickhouseDSN
	}
	if *redisAddr != "" {
		cfg.Storage.RedisAddr = *redisAddr
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if *date == "" {
		fmt.Fprintln(os.Stderr, "Error: --date is required")
		os.Exit(1)
	}
	slate, err := time.Parse(storage.DateLayout, *date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --date %q: %v\n", *date, err)
		os.Exit(1)
	}
	if cfg.Storage.ClickHouseDSN == "" && cfg.Storage.RedisAddr == "" {
		fmt.Fprintln(os.Stderr, "Error: --clickhouse-dsn or --redis-addr is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Only the projection outputs are read
	storageCfg := cfg.Storage
	storageCfg.Backend = config.BackendMemory
	stores, err := app.OpenStores(ctx, storageCfg, logger, nil)
	if err != nil {
		logger.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	source := stores.Projections
	if cfg.Storage.ClickHouseDSN == "" {
		source = stores.Cache
	}

	gen := reporting.NewGenerator(cfg.OutputDir).WithTopN(*topN)
	report, err := gen.FromStore(ctx, source, slate)
	if err != nil {
		logger.WithError(err).Error("load projections")
		stores.Close()
		os.Exit(1)
	}
	if len(report.Projections) == 0 {
		fmt.Printf("No projections stored for %s\n", *date)
		return
	}

	files, err := gen.Write(report)
	if err != nil {
		logger.WithError(err).Error("write report")
		stores.Close()
		os.Exit(1)
	}

	fmt.Printf("Report for %s: %d projections across %d games\n", *date, len(report.Projections), report.Games)
	for _, f := range files {
		fmt.Printf("  wrote %s\n", f)
	}
}
