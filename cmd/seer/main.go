// Package main runs one slate: load CSV inputs, project the slate's players
// and write the projection report.
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
	configPath := flag.String("config", "", "Path to a YAML config file (default: ./config.yaml or ./configs/config.yaml)")
	mode := flag.String("mode", "", "Run mode: live or backtest")
	date := flag.String("date", "", "Slate date YYYY-MM-DD (default: today in US Eastern)")
	games := flag.String("games", "", "Comma-separated game table CSV files")
	directory := flag.String("directory", "", "Comma-separated player directory CSV files")
	logs := flag.String("logs", "", "Comma-separated game log CSV files")
	outputDir := flag.String("output-dir", "", "Output directory for reports")
	backend := flag.String("backend", "", "Storage backend: memory, postgres or sqlite")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (same as --backend memory)")
	workers := flag.Int("workers", 0, "Parallel row workers")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment
	if *mode != "" {
		cfg.Mode = strings.ToLower(*mode)
	}
	if *date != "" {
		cfg.SlateDate = *date
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
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *backend != "" {
		cfg.Storage.Backend = strings.ToLower(*backend)
	}
	if *useMemory {
		cfg.Storage.Backend = config.BackendMemory
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("nba_seer")
	stores, err := app.OpenStores(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		logger.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	out, err := app.RunSlate(ctx, app.SlateOptions{
		Config:  cfg,
		Stores:  stores,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.WithError(err).Error("slate run failed")
		stores.Close()
		os.Exit(1)
	}

	printSummary(logger, out)
}

func printSummary(logger *logrus.Logger, out *app.SlateOutput) {
	res := out.Result
	fmt.Printf("Slate %s (%s)\n", out.SlateDate.Format("2006-01-02"), res.Mode)
	fmt.Printf("  run id:      %s\n", res.RunID)
	fmt.Printf("  games:       %d\n", res.Games)
	fmt.Printf("  resolved:    %d\n", res.Resolved)
	fmt.Printf("  projections: %d\n", len(res.Projections))
	fmt.Printf("  dropped:     %d\n", res.Dropped)
	fmt.Printf("  row errors:  %d\n", res.RowErrors)
	if ev := res.Evaluation; ev != nil && ev.Count > 0 {
		fmt.Printf("  evaluated:   %d (MAE %.2f, RMSE %.2f, bias %+.2f)\n", ev.Count, ev.MAE, ev.RMSE, ev.Bias)
	}
	for _, f := range out.Files {
		fmt.Printf("  wrote %s\n", f)
	}
	for _, e := range res.Errors {
		logger.Warn(e)
	}
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
