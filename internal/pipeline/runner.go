// Package pipeline runs one slate end to end: resolve rows, derive features
// per row in parallel, then drop degenerate rows and score the rest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nba-seer/internal/domain"
	"nba-seer/internal/logging"
	"nba-seer/internal/observability"
	"nba-seer/internal/roster"
	"nba-seer/internal/scoring"
)

// DefaultWorkers bounds per-row derivation when Options.Workers is not set.
const DefaultWorkers = 8

// Row error kinds, used as metric labels.
const (
	ErrKindInvalidGameID = "invalid_game_id"
	ErrKindDerive        = "derive"
)

// Deriver computes the feature set of one row. Implementations must be safe
// for concurrent use.
type Deriver interface {
	Derive(row *domain.PlayerQueryRow) (*domain.DerivedFeatureSet, error)
}

// Options configures a Runner.
type Options struct {
	Resolver  roster.Resolver
	Deriver   Deriver
	SlateDate time.Time
	Mode      string // metric label only
	Workers   int
	RunID     string // generated when empty
	Logger    logrus.FieldLogger
	Metrics   *observability.Metrics
}

// RowError is a row excluded from the output because derivation failed.
type RowError struct {
	Row  domain.PlayerQueryRow
	Kind string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("person %d game %s: %v", e.Row.PersonID, e.Row.GameID, e.Err)
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Projections []*domain.PlayerProjection
	Resolved    int
	Dropped     int
	RowErrors   []RowError
}

// Runner executes the pipeline for a slate.
type Runner struct {
	opts Options
	log  logrus.FieldLogger
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Runner{
		opts: opts,
		log:  logging.Component(opts.Logger, "pipeline"),
	}
}

type derived struct {
	features *domain.DerivedFeatureSet
	err      error
}

// Run projects every player of the given games.
// Resolver errors abort the run; derivation errors only exclude their row.
func (r *Runner) Run(ctx context.Context, games []*domain.Game) (*Result, error) {
	start := time.Now()
	res, err := r.run(ctx, games)
	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}
	r.opts.Metrics.RecordPipelineRun(r.opts.Mode, status, time.Since(start))
	return res, err
}

func (r *Runner) run(ctx context.Context, games []*domain.Game) (*Result, error) {
	if r.opts.Resolver == nil || r.opts.Deriver == nil {
		return nil, errors.New("pipeline: resolver and deriver are required")
	}

	runID := r.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := r.log.WithField("run_id", runID)

	rows, err := r.opts.Resolver.Resolve(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("resolve rows: %w", err)
	}
	r.opts.Metrics.RecordResolved(len(rows))
	log.WithFields(logrus.Fields{"games": len(games), "rows": len(rows)}).Info("rows resolved")

	results, err := r.deriveAll(ctx, rows)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Resolved: len(rows)}
	projections := make([]*domain.PlayerProjection, 0, len(rows))
	for i, row := range rows {
		if err := results[i].err; err != nil {
			kind := ErrKindDerive
			if errors.Is(err, domain.ErrInvalidGameID) {
				kind = ErrKindInvalidGameID
			}
			log.WithFields(logrus.Fields{
				"person_id": row.PersonID,
				"game_id":   row.GameID,
				"kind":      kind,
			}).WithError(err).Warn("row excluded")
			r.opts.Metrics.RecordRowError(kind)
			res.RowErrors = append(res.RowErrors, RowError{Row: *row, Kind: kind, Err: err})
			continue
		}
		projections = append(projections, &domain.PlayerProjection{
			RunID:     runID,
			SlateDate: r.opts.SlateDate,
			Row:       *row,
			Features:  *results[i].features,
		})
	}

	res.Projections, res.Dropped = scoring.Aggregate(projections)
	r.opts.Metrics.RecordAggregated(len(res.Projections), res.Dropped)
	log.WithFields(logrus.Fields{
		"projections": len(res.Projections),
		"dropped":     res.Dropped,
		"row_errors":  len(res.RowErrors),
	}).Info("slate projected")

	return res, nil
}

// deriveAll runs the deriver over rows with bounded parallelism.
// Each goroutine writes only its own slot of the result slice.
func (r *Runner) deriveAll(ctx context.Context, rows []*domain.PlayerQueryRow) ([]derived, error) {
	results := make([]derived, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, row := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			start := time.Now()
			fs, err := r.opts.Deriver.Derive(row)
			if err == nil && fs == nil {
				err = errors.New("deriver returned no features")
			}
			results[i] = derived{features: fs, err: err}
			if err == nil {
				r.opts.Metrics.RecordDerived(time.Since(start))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("derive features: %w", err)
	}
	return results, nil
}
