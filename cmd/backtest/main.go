// Package main backtests projections over a range of past slates and reports
// the pooled accuracy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/app"
	"nba-seer/internal/backtest"
	"nba-seer/internal/config"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
	"nba-seer/internal/storage"
	"nba-seer/internal/verification"
)

// summary is the --json output.
type summary struct {
	From        string        `json:"from"`
	To          string        `json:"to"`
	Slates      []slateResult `json:"slates"`
	EmptyDates  int           `json:"empty_dates"`
	Evaluated   int           `json:"evaluated"`
	Skipped     int           `json:"skipped"`
	MAE         float64       `json:"mae"`
	RMSE        float64       `json:"rmse"`
	Bias        float64       `json:"bias"`
	MedianAbs   float64       `json:"median_abs_error"`
	P90Abs      float64       `json:"p90_abs_error"`
	ErrorStddev *float64      `json:"error_stddev"`
}

type slateResult struct {
	Date        string  `json:"date"`
	RunID       string  `json:"run_id"`
	Games       int     `json:"games"`
	Projections int     `json:"projections"`
	Evaluated   int     `json:"evaluated"`
	MAE         float64 `json:"mae"`
	Verified    int     `json:"verified,omitempty"`
	Divergent   int     `json:"divergent,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	from := flag.String("from", "", "First slate date YYYY-MM-DD (required)")
	to := flag.String("to", "", "Last slate date YYYY-MM-DD (default: --from)")
	games := flag.String("games", "", "Comma-separated game table CSV files")
	logs := flag.String("logs", "", "Comma-separated game log CSV files")
	outputDir := flag.String("output-dir", "", "Output directory for per-slate reports (empty disables)")
	backend := flag.String("backend", "", "Storage backend: memory, postgres or sqlite")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verify := flag.Bool("verify", false, "Re-derive every stored run from the game log and compare")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.Mode = config.ModeBacktest
	cfg.OutputDir = *outputDir
	if *games != "" {
		cfg.Inputs.Games = splitList(*games)
	}
	if *logs != "" {
		cfg.Inputs.GameLogs = splitList(*logs)
	}
	// Backtests resolve rosters from box scores
	cfg.Inputs.Directory = nil
	if *backend != "" {
		cfg.Storage.Backend = strings.ToLower(*backend)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	if *from == "" {
		logger.Fatal("--from is required")
	}
	if *to == "" {
		*to = *from
	}
	start, err := time.Parse(storage.DateLayout, *from)
	if err != nil {
		logger.WithError(err).Fatal("invalid --from")
	}
	end, err := time.Parse(storage.DateLayout, *to)
	if err != nil {
		logger.WithError(err).Fatal("invalid --to")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("nba_seer")
	stores, err := app.OpenStores(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		logger.WithError(err).Fatal("open stores")
	}
	defer stores.Close()

	out, err := app.RunRange(ctx, app.SlateOptions{
		Config:  cfg,
		Stores:  stores,
		Logger:  logger,
		Metrics: metrics,
	}, start, end)
	if err != nil {
		logger.WithError(err).Error("backtest failed")
		stores.Close()
		os.Exit(1)
	}

	s := buildSummary(*from, *to, out)
	if *verify {
		weights := cfg.Scoring.Weights()
		v := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			ProjectionStore: stores.Projections,
			GameLogStore:    stores.GameLogs,
			Weights:         &weights,
		})
		for i, sl := range out.Slates {
			if len(sl.Result.Projections) == 0 {
				continue
			}
			report, err := v.VerifyRun(ctx, sl.Result.RunID)
			if err != nil {
				logger.WithError(err).WithField("run_id", sl.Result.RunID).Error("verify run")
				stores.Close()
				os.Exit(1)
			}
			s.Slates[i].Verified = report.Matched
			s.Slates[i].Divergent = report.Divergent
			for _, r := range report.Results {
				if !r.Match {
					logger.WithFields(logrus.Fields{
						"run_id":      report.RunID,
						"person_id":   r.Key.PersonID,
						"game_id":     r.Key.GameID,
						"divergences": r.Divergences,
					}).Warn("projection does not reproduce")
				}
			}
		}
	}
	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			logger.WithError(err).Fatal("encode summary")
		}
		return
	}
	printSummary(s)
}

func buildSummary(from, to string, out *app.RangeOutput) summary {
	ev := out.Evaluation
	if ev == nil {
		ev = &backtest.Evaluation{}
	}
	s := summary{
		From:        from,
		To:          to,
		EmptyDates:  out.Empty,
		Evaluated:   ev.Count,
		Skipped:     ev.Skipped,
		MAE:         ev.MAE,
		RMSE:        ev.RMSE,
		Bias:        ev.Bias,
		MedianAbs:   ev.MedianAbs,
		P90Abs:      ev.P90Abs,
		ErrorStddev: ev.ErrorStddev,
	}
	for _, sl := range out.Slates {
		r := sl.Result
		res := slateResult{
			Date:        sl.SlateDate.Format(storage.DateLayout),
			RunID:       r.RunID,
			Games:       r.Games,
			Projections: len(r.Projections),
		}
		if r.Evaluation != nil {
			res.Evaluated = r.Evaluation.Count
			res.MAE = r.Evaluation.MAE
		}
		s.Slates = append(s.Slates, res)
	}
	return s
}

func printSummary(s summary) {
	fmt.Printf("Backtest %s .. %s\n", s.From, s.To)
	fmt.Printf("%-12s %-8s %-6s %-12s %-10s %-10s %s\n", "DATE", "GAMES", "PROJ", "EVALUATED", "MAE", "DIVERGENT", "RUN")
	for _, r := range s.Slates {
		fmt.Printf("%-12s %-8d %-6d %-12d %-10.2f %-10d %s\n", r.Date, r.Games, r.Projections, r.Evaluated, r.MAE, r.Divergent, r.RunID)
	}
	fmt.Printf("\nDates without games: %d\n", s.EmptyDates)
	fmt.Printf("Evaluated: %d (skipped %d)\n", s.Evaluated, s.Skipped)
	if s.Evaluated == 0 {
		return
	}
	fmt.Printf("MAE:  %.3f\n", s.MAE)
	fmt.Printf("RMSE: %.3f\n", s.RMSE)
	fmt.Printf("Bias: %+.3f\n", s.Bias)
	fmt.Printf("Median |error|: %.3f, P90 |error|: %.3f\n", s.MedianAbs, s.P90Abs)
	if s.ErrorStddev != nil {
		fmt.Printf("Error stddev: %.3f\n", *s.ErrorStddev)
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
