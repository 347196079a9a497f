package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nba-seer/internal/domain"
	"nba-seer/internal/features"
	"nba-seer/internal/history"
	"nba-seer/internal/scoring"
	"nba-seer/internal/storage"
)

// ErrRunNotFound is returned when no projection is stored under the run id.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier implements Verifier by re-deriving projections from the game log.
type ReplayVerifier struct {
	projectionStore storage.ProjectionStore
	gameLogStore    storage.GameLogStore
	weights         features.Weights

	// clockFor returns the rest-day reference for a slate.
	clockFor func(slate time.Time) features.Clock
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	ProjectionStore storage.ProjectionStore
	GameLogStore    storage.GameLogStore
	Weights         *features.Weights // nil uses features.DefaultWeights

	// ClockFor overrides the rest-day reference. The default is the slate
	// date, which is what backtest runs use; live runs were projected with the
	// wall clock and need the instant they ran at.
	ClockFor func(slate time.Time) features.Clock
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	weights := features.DefaultWeights
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	clockFor := opts.ClockFor
	if clockFor == nil {
		clockFor = features.FixedClock
	}
	return &ReplayVerifier{
		projectionStore: opts.ProjectionStore,
		gameLogStore:    opts.GameLogStore,
		weights:         weights,
		clockFor:        clockFor,
	}
}

var _ Verifier = (*ReplayVerifier)(nil)

// VerifyRun verifies every projection of a run.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	// 1. Load stored projections
	stored, err := v.projectionStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	// 2. Load history of the run's players
	seen := make(map[int64]struct{}, len(stored))
	var playerIDs []int64
	for _, p := range stored {
		if _, ok := seen[p.Row.PersonID]; !ok {
			seen[p.Row.PersonID] = struct{}{}
			playerIDs = append(playerIDs, p.Row.PersonID)
		}
	}
	idx, err := history.Load(ctx, v.gameLogStore, playerIDs)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		RunID:   runID,
		Total:   len(stored),
		Results: make([]VerificationResult, 0, len(stored)),
	}

	// 3. Replay and compare
	for _, p := range stored {
		result := VerificationResult{Key: p.Key()}
		replayed, err := v.replay(idx, p)
		switch {
		case err != nil:
			result.Divergences = []FieldDivergence{{Field: "Error", Actual: err.Error()}}
		default:
			result.Divergences = CompareProjections(p, replayed)
		}
		result.Match = len(result.Divergences) == 0
		if result.Match {
			report.Matched++
		} else {
			report.Divergent++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// replay derives and scores the stored row again. A row that would now be
// dropped is an error.
func (v *ReplayVerifier) replay(idx *history.Index, stored *domain.PlayerProjection) (*domain.PlayerProjection, error) {
	engine := features.NewEngine(idx).WithWeights(v.weights).WithClock(v.clockFor(stored.SlateDate))
	row := stored.Row
	fs, err := engine.Derive(&row)
	if err != nil {
		return nil, err
	}
	survivors, _ := scoring.Aggregate([]*domain.PlayerProjection{{
		RunID:     stored.RunID,
		SlateDate: stored.SlateDate,
		Row:       row,
		Features:  *fs,
	}})
	if len(survivors) == 0 {
		return nil, errors.New("replayed row is degenerate and would be dropped")
	}
	return survivors[0], nil
}
