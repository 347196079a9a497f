// Package backtest measures projection accuracy against games already played.
package backtest

import (
	"math"
	"sort"

	"nba-seer/internal/domain"
	"nba-seer/internal/features"
	"nba-seer/internal/metrics"
)

// Row is one projection paired with the score the player actually posted.
type Row struct {
	PersonID  int64
	GameID    string
	Location  domain.Location
	Projected float64 // EXP_SCO_L
	Actual    float64 // raw composite score of the game
	Error     float64 // Projected - Actual
}

// Evaluation summarizes projection error over a backtest slate.
type Evaluation struct {
	Count       int
	Skipped     int // projections without EXP_SCO_L or without a played game
	MAE         float64
	RMSE        float64
	Bias        float64 // mean signed error, positive means over-projection
	MedianAbs   float64
	P90Abs      float64
	ErrorStddev *float64 // nil with fewer than 2 rows
	Rows        []Row
}

// Evaluate compares projections with the box scores of the same games.
// The actual score is the raw, not per-36, composite under w.
// Rows are returned ordered by absolute error, largest first.
func Evaluate(projections []*domain.PlayerProjection, records []*domain.PlayerGameRecord, w features.Weights) *Evaluation {
	actual := make(map[domain.RowKey]*domain.PlayerGameRecord, len(records))
	for _, r := range records {
		if r != nil {
			actual[domain.RowKey{PersonID: r.PlayerID, GameID: r.GameID}] = r
		}
	}

	ev := &Evaluation{}
	for _, p := range projections {
		rec, ok := actual[p.Key()]
		if !ok || !rec.Played() || p.Features.ExpectedScoreLocation == nil {
			ev.Skipped++
			continue
		}
		row := Row{
			PersonID:  p.Row.PersonID,
			GameID:    p.Row.GameID,
			Location:  p.Row.Location,
			Projected: *p.Features.ExpectedScoreLocation,
			Actual:    w.Composite(features.RawBoxScore(rec)),
		}
		row.Error = row.Projected - row.Actual
		ev.Rows = append(ev.Rows, row)
	}

	summarize(ev)
	return ev
}

// Merge pools several evaluations, e.g. the slates of a date range, and
// recomputes every statistic over the combined rows.
func Merge(evals ...*Evaluation) *Evaluation {
	merged := &Evaluation{}
	for _, ev := range evals {
		if ev == nil {
			continue
		}
		merged.Skipped += ev.Skipped
		merged.Rows = append(merged.Rows, ev.Rows...)
	}
	summarize(merged)
	return merged
}

// summarize fills the statistics of ev from ev.Rows and orders the rows.
func summarize(ev *Evaluation) {
	ev.Count = len(ev.Rows)
	if ev.Count == 0 {
		return
	}

	errs := make([]float64, 0, ev.Count)
	absErrs := make([]float64, 0, ev.Count)
	sqErrs := make([]float64, 0, ev.Count)
	for _, row := range ev.Rows {
		errs = append(errs, row.Error)
		absErrs = append(absErrs, math.Abs(row.Error))
		sqErrs = append(sqErrs, row.Error*row.Error)
	}

	ev.Bias, _ = metrics.Mean(errs)
	ev.MAE, _ = metrics.Mean(absErrs)
	mse, _ := metrics.Mean(sqErrs)
	ev.RMSE = math.Sqrt(mse)
	ev.MedianAbs = metrics.Percentile(absErrs, 0.5)
	ev.P90Abs = metrics.Percentile(absErrs, 0.9)
	ev.ErrorStddev = nil
	if sd, ok := metrics.SampleStddev(errs, ev.Bias); ok {
		ev.ErrorStddev = &sd
	}

	sort.SliceStable(ev.Rows, func(i, j int) bool {
		return math.Abs(ev.Rows[i].Error) > math.Abs(ev.Rows[j].Error)
	})
}
