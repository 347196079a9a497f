package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/config"
	"nba-seer/internal/features"
	"nba-seer/internal/ingestion"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
	"nba-seer/internal/orchestrator"
	"nba-seer/internal/reporting"
	"nba-seer/internal/storage"
)

// SlateOptions configures one slate run.
type SlateOptions struct {
	Config  *config.Config
	Stores  *Stores
	Logger  logrus.FieldLogger
	Metrics *observability.Metrics

	// Clock resolves "today" when no slate date is configured and the rest-day
	// reference in live mode. Defaults to US Eastern now.
	Clock features.Clock
}

// SlateOutput is what a slate run produced.
type SlateOutput struct {
	SlateDate time.Time
	Loaded    *ingestion.LoadResult
	Result    *orchestrator.RunResult
	Files     []string // report files, empty when output_dir is unset or the slate had no games
}

// RunSlate loads the configured CSV inputs, projects the slate and writes its report.
func RunSlate(ctx context.Context, opts SlateOptions) (*SlateOutput, error) {
	opts = opts.withDefaults()

	slate, clock, err := opts.resolveSlate()
	if err != nil {
		return nil, err
	}

	loaded, err := LoadInputs(ctx, opts)
	if err != nil {
		return nil, err
	}

	var runClock features.Clock
	if opts.Config.Mode == config.ModeLive {
		runClock = clock
	}
	out, err := projectSlate(ctx, opts, slate, orchestrator.Mode(opts.Config.Mode), runClock)
	if err != nil {
		return out, err
	}
	out.Loaded = loaded
	return out, nil
}

// LoadInputs stores the CSV files named in the configuration. It returns nil
// when no inputs are configured. Game rows without a date are stamped with
// the slate date.
func LoadInputs(ctx context.Context, opts SlateOptions) (*ingestion.LoadResult, error) {
	opts = opts.withDefaults()
	in := opts.Config.Inputs
	files := ingestion.Files{
		Games:     in.Games,
		Directory: in.Directory,
		GameLogs:  in.GameLogs,
	}
	if len(files.Games)+len(files.Directory)+len(files.GameLogs) == 0 {
		return nil, nil
	}
	slate, _, err := opts.resolveSlate()
	if err != nil {
		return nil, err
	}
	files.GameDate = slate
	loader := ingestion.NewLoader(ingestion.LoaderOptions{
		GameStore:      opts.Stores.Games,
		DirectoryStore: opts.Stores.Directory,
		GameLogStore:   opts.Stores.GameLogs,
		Logger:         opts.Logger,
		Metrics:        opts.Metrics,
	})
	loaded, err := loader.LoadFiles(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	return loaded, nil
}

// projectSlate runs the orchestrator for one date and writes its report.
// A nil clock lets the orchestrator pick the mode default.
func projectSlate(ctx context.Context, opts SlateOptions, slate time.Time, mode orchestrator.Mode, clock features.Clock) (*SlateOutput, error) {
	cfg := opts.Config
	out := &SlateOutput{SlateDate: slate}

	weights := cfg.Scoring.Weights()
	res, err := orchestrator.New(orchestrator.Options{
		GameStore:        opts.Stores.Games,
		DirectoryStore:   opts.Stores.Directory,
		GameLogStore:     opts.Stores.GameLogs,
		ProjectionStores: opts.Stores.Sinks(),
		Mode:             mode,
		SlateDate:        slate,
		Workers:          cfg.Workers,
		Weights:          &weights,
		Clock:            clock,
		Logger:           opts.Logger,
		Metrics:          opts.Metrics,
	}).Run(ctx)
	if err != nil {
		return nil, err
	}
	out.Result = res

	if cfg.OutputDir != "" && res.Games > 0 {
		out.Files, err = reporting.NewGenerator(cfg.OutputDir).Write(Report(res))
		if err != nil {
			return out, fmt.Errorf("write report: %w", err)
		}
	}

	logging.Component(opts.Logger, "app").WithFields(logrus.Fields{
		"slate":       slate.Format(storage.DateLayout),
		"run_id":      res.RunID,
		"projections": len(res.Projections),
		"files":       len(out.Files),
	}).Info("slate run finished")

	return out, nil
}

// resolveSlate returns the configured slate date, or the clock's date when
// none is configured, along with the clock itself.
func (o SlateOptions) resolveSlate() (time.Time, features.Clock, error) {
	clock := o.Clock
	if clock == nil {
		eastern, err := features.EasternClock()
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("load eastern time zone: %w", err)
		}
		clock = eastern
	}

	slate, ok, err := o.Config.Slate()
	if err != nil {
		return time.Time{}, nil, err
	}
	if !ok {
		y, m, d := clock().Date()
		slate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return slate, clock, nil
}

func (o SlateOptions) withDefaults() SlateOptions {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Report converts an orchestrator result into a slate report.
func Report(res *orchestrator.RunResult) *reporting.SlateReport {
	return &reporting.SlateReport{
		RunID:       res.RunID,
		Mode:        string(res.Mode),
		SlateDate:   res.SlateDate,
		Games:       res.Games,
		Resolved:    res.Resolved,
		Dropped:     res.Dropped,
		RowErrors:   res.RowErrors,
		Projections: res.Projections,
		Evaluation:  res.Evaluation,
		Errors:      res.Errors,
	}
}
