// Package orchestrator provides end-to-end slate orchestration.
// It coordinates: load games → resolve roster → load history → project → persist → evaluate
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"nba-seer/internal/backtest"
	"nba-seer/internal/domain"
	"nba-seer/internal/features"
	"nba-seer/internal/history"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
	"nba-seer/internal/pipeline"
	"nba-seer/internal/roster"
	"nba-seer/internal/storage"
)

// Mode selects how the roster of a slate is resolved.
type Mode string

const (
	// ModeLive projects scheduled games from the current player directory.
	ModeLive Mode = "live"
	// ModeBacktest projects played games from their box scores and scores the result.
	ModeBacktest Mode = "backtest"
)

// ProjectionSink receives the projections of a run. Every storage.ProjectionStore
// is a sink; caches that only accept writes can be too.
type ProjectionSink interface {
	InsertBulk(ctx context.Context, projections []*domain.PlayerProjection) error
}

// Orchestrator coordinates one slate run.
type Orchestrator struct {
	// Stores
	gameStore        storage.GameStore
	directoryStore   storage.PlayerDirectoryStore
	gameLogStore     storage.GameLogStore
	projectionStores []ProjectionSink

	// Run parameters
	mode      Mode
	slateDate time.Time
	workers   int
	weights   features.Weights
	clock     features.Clock

	log     *logrus.Entry
	metrics *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	GameStore      storage.GameStore
	DirectoryStore storage.PlayerDirectoryStore // live mode only
	GameLogStore   storage.GameLogStore

	// Outputs; every store receives the full projection set
	ProjectionStores []ProjectionSink

	Mode      Mode
	SlateDate time.Time
	Workers   int
	Weights   *features.Weights // nil uses features.DefaultWeights

	// Clock for rest days. Defaults to US Eastern now in live mode. Backtest
	// mode defaults to the slate date rather than the call time, so a
	// historical slate's rest days match what they were on that day and
	// reruns are reproducible.
	Clock features.Clock

	Logger  logrus.FieldLogger
	Metrics *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	weights := features.DefaultWeights
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Mode == "" {
		opts.Mode = ModeLive
	}
	return &Orchestrator{
		gameStore:        opts.GameStore,
		directoryStore:   opts.DirectoryStore,
		gameLogStore:     opts.GameLogStore,
		projectionStores: opts.ProjectionStores,
		mode:             opts.Mode,
		slateDate:        opts.SlateDate,
		workers:          opts.Workers,
		weights:          weights,
		clock:            opts.Clock,
		log:              logging.Component(logger, "orchestrator"),
		metrics:          opts.Metrics,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID       string
	Mode        Mode
	SlateDate   time.Time
	Games       int
	Resolved    int
	Dropped     int
	RowErrors   int
	Projections []*domain.PlayerProjection
	Evaluation  *backtest.Evaluation // backtest mode only
	Errors      []string
}

// Run executes the slate.
// Phases:
//  1. Load games for the slate date
//  2. Build the roster resolver for the mode
//  3. Load history for the slate's players
//  4. Run the projection pipeline
//  5. Persist projections to every projection store
//  6. Evaluate accuracy (backtest only)
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{Mode: o.mode, SlateDate: o.slateDate}
	log := o.log.WithFields(logrus.Fields{
		"mode":  o.mode,
		"slate": o.slateDate.Format(storage.DateLayout),
	})

	// Phase 1: Load games
	games, err := o.gameStore.GetByDate(ctx, o.slateDate)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load games) failed: %w", err)
	}
	result.Games = len(games)
	log.WithField("games", len(games)).Info("games loaded")
	if len(games) == 0 {
		return result, nil
	}

	// Phase 2: Resolver
	resolver, playerIDs, slateRecords, err := o.buildResolver(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (resolve roster) failed: %w", err)
	}

	// Phase 3: History
	idx, err := history.Load(ctx, o.gameLogStore, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (load history) failed: %w", err)
	}
	log.WithFields(logrus.Fields{"players": idx.Players(), "records": idx.Len()}).Info("history loaded")

	clock, err := o.resolveClock()
	if err != nil {
		return nil, err
	}

	// Phase 4: Pipeline
	runner := pipeline.NewRunner(pipeline.Options{
		Resolver:  resolver,
		Deriver:   features.NewEngine(idx).WithWeights(o.weights).WithClock(clock),
		SlateDate: o.slateDate,
		Mode:      string(o.mode),
		Workers:   o.workers,
		Logger:    log,
		Metrics:   o.metrics,
	})
	res, err := runner.Run(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (project) failed: %w", err)
	}
	result.RunID = res.RunID
	result.Resolved = res.Resolved
	result.Dropped = res.Dropped
	result.RowErrors = len(res.RowErrors)
	result.Projections = res.Projections
	for _, re := range res.RowErrors {
		result.Errors = append(result.Errors, re.Error())
	}

	// Phase 5: Persist
	result.Errors = append(result.Errors, o.persist(ctx, res.Projections)...)

	// Phase 6: Evaluate
	if o.mode == ModeBacktest {
		result.Evaluation = backtest.Evaluate(res.Projections, slateRecords, o.weights)
		if result.Evaluation.Count > 0 {
			o.metrics.RecordBacktest(result.Evaluation.MAE, result.Evaluation.RMSE)
		}
		log.WithFields(logrus.Fields{
			"evaluated": result.Evaluation.Count,
			"mae":       result.Evaluation.MAE,
			"rmse":      result.Evaluation.RMSE,
		}).Info("backtest evaluated")
	}

	log.WithFields(logrus.Fields{
		"run_id":      result.RunID,
		"projections": len(result.Projections),
		"errors":      len(result.Errors),
	}).Info("slate completed")

	return result, nil
}

// buildResolver returns the resolver for the mode, the ids of every player
// who may appear on the slate, and the slate's own box scores (backtest only).
func (o *Orchestrator) buildResolver(ctx context.Context, games []*domain.Game) (roster.Resolver, []int64, []*domain.PlayerGameRecord, error) {
	switch o.mode {
	case ModeLive:
		if o.directoryStore == nil {
			return nil, nil, nil, errors.New("live mode requires a player directory store")
		}
		teamIDs := make([]int64, 0, 2*len(games))
		for _, g := range games {
			teamIDs = append(teamIDs, g.HomeTeamID, g.VisitorTeamID)
		}
		entries, err := o.directoryStore.GetByTeamIDs(ctx, teamIDs)
		if err != nil {
			return nil, nil, nil, err
		}
		ids := make([]int64, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.PersonID)
		}
		return roster.NewLiveResolver(entries), ids, nil, nil

	case ModeBacktest:
		gameIDs := make([]string, 0, len(games))
		for _, g := range games {
			gameIDs = append(gameIDs, g.GameID)
		}
		records, err := o.gameLogStore.GetByGameIDs(ctx, gameIDs)
		if err != nil {
			return nil, nil, nil, err
		}
		seen := make(map[int64]struct{}, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			if _, ok := seen[r.PlayerID]; !ok {
				seen[r.PlayerID] = struct{}{}
				ids = append(ids, r.PlayerID)
			}
		}
		return roster.NewBacktestResolver(records), ids, records, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown mode %q", o.mode)
}

func (o *Orchestrator) resolveClock() (features.Clock, error) {
	if o.clock != nil {
		return o.clock, nil
	}
	if o.mode == ModeBacktest {
		return features.FixedClock(o.slateDate), nil
	}
	return features.EasternClock()
}

// persist writes projections to every store. Failures are collected, not fatal.
func (o *Orchestrator) persist(ctx context.Context, projections []*domain.PlayerProjection) []string {
	if len(projections) == 0 {
		return nil
	}
	var errs []string
	for i, store := range o.projectionStores {
		if err := store.InsertBulk(ctx, projections); err != nil {
			o.log.WithField("store", i).WithError(err).Error("persist projections")
			errs = append(errs, fmt.Sprintf("persist to store %d (%T): %v", i, store, err))
		}
	}
	return errs
}
