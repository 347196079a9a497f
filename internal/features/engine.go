package features

import (
	"fmt"
	"time"

	"nba-seer/internal/domain"
)

// History is the read-only view of past games the engine derives from.
type History interface {
	Before(playerID int64, ref domain.SortableGameID) []*domain.PlayerGameRecord
}

// Engine derives a DerivedFeatureSet for a query row. Safe for concurrent use
// as long as the History is.
type Engine struct {
	history History
	weights Weights
	clock   Clock
}

// NewEngine creates an engine over history with DefaultWeights and a US Eastern
// wall clock.
func NewEngine(history History) *Engine {
	clock, err := EasternClock()
	if err != nil {
		// unreachable with the embedded tzdata
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		history: history,
		weights: DefaultWeights,
		clock:   clock,
	}
}

// WithWeights overrides the scoring weights.
func (e *Engine) WithWeights(w Weights) *Engine {
	e.weights = w
	return e
}

// WithClock sets the clock used for rest days.
func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

// Weights returns the scoring weights in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Derive computes every feature of the row from games strictly before it.
// A malformed game id is the only error; missing history yields nil features.
func (e *Engine) Derive(row *domain.PlayerQueryRow) (*domain.DerivedFeatureSet, error) {
	ref, err := domain.ParseGameID(row.GameID)
	if err != nil {
		return nil, fmt.Errorf("derive player %d: %w", row.PersonID, err)
	}
	before := e.history.Before(row.PersonID, ref)

	fs := &domain.DerivedFeatureSet{
		GameDensity5: GameDensity(before, DensityWindow),
		DaysRest:     DaysRest(before, e.clock()),
	}
	for _, n := range domain.Windows {
		fs.SetWindow(n, e.weights.Window(before, n))
	}
	fs.HomeAffinity, fs.AwayAffinity = e.weights.LocationAffinity(before)

	return fs, nil
}
