package reporting

import (
	"time"

	"nba-seer/internal/backtest"
	"nba-seer/internal/domain"
)

// DefaultTopN is the number of projections listed in the slate summary.
const DefaultTopN = 15

// SlateReport represents one projected slate.
type SlateReport struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Mode        string
	SlateDate   time.Time

	// Run summary
	Games     int
	Resolved  int
	Dropped   int
	RowErrors int

	// Output rows, ordered by (game_id, person_id)
	Projections []*domain.PlayerProjection

	// Backtest accuracy, nil in live mode
	Evaluation *backtest.Evaluation

	// Non-fatal errors collected during the run
	Errors []string
}
