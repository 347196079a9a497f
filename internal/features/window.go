// Package features derives the per-row feature set from a player's history:
// windowed per-36 score and minutes statistics plus temporal features.
package features

import (
	"math"

	"nba-seer/internal/domain"
	"nba-seer/internal/metrics"
)

// PerMinuteBasis is the minute count every box score is normalized to.
const PerMinuteBasis = 36.0

// Weights are the composite fantasy score weights and the outlier cutoff.
// They are fixed configuration and never fitted from data.
type Weights struct {
	Points      float64
	Assists     float64
	OffRebounds float64
	DefRebounds float64
	Steals      float64
	Blocks      float64
	Turnovers   float64

	// OutlierCutoff bounds |score/36|. Games above it are excluded from score stats.
	OutlierCutoff float64
}

// DefaultWeights are the production scoring weights.
var DefaultWeights = Weights{
	Points:        1,
	Assists:       1.5,
	OffRebounds:   1.2,
	DefRebounds:   1.2,
	Steals:        2,
	Blocks:        2,
	Turnovers:     -1,
	OutlierCutoff: 2.5,
}

// BoxScore is the set of counting stats of one game, raw or normalized.
type BoxScore struct {
	Points              float64
	Assists             float64
	OffRebounds         float64
	DefRebounds         float64
	Steals              float64
	Blocks              float64
	Turnovers           float64
	FieldGoalsMade      float64
	FieldGoalsAttempted float64
	ThreesMade          float64
}

// RawBoxScore returns the unscaled counting stats of a record.
func RawBoxScore(r *domain.PlayerGameRecord) BoxScore {
	return BoxScore{
		Points:              r.Points,
		Assists:             r.Assists,
		OffRebounds:         r.OffRebounds,
		DefRebounds:         r.DefRebounds,
		Steals:              r.Steals,
		Blocks:              r.Blocks,
		Turnovers:           r.Turnovers,
		FieldGoalsMade:      r.FieldGoalsMade,
		FieldGoalsAttempted: r.FieldGoalsAttempted,
		ThreesMade:          r.ThreesMade,
	}
}

// Per36 scales a record's counting stats to a 36-minute basis.
// ok is false when minutes are missing or not positive.
func Per36(r *domain.PlayerGameRecord) (BoxScore, bool) {
	if r.Minutes == nil || *r.Minutes <= 0 {
		return BoxScore{}, false
	}
	scale := PerMinuteBasis / *r.Minutes
	b := RawBoxScore(r)
	return BoxScore{
		Points:              b.Points * scale,
		Assists:             b.Assists * scale,
		OffRebounds:         b.OffRebounds * scale,
		DefRebounds:         b.DefRebounds * scale,
		Steals:              b.Steals * scale,
		Blocks:              b.Blocks * scale,
		Turnovers:           b.Turnovers * scale,
		FieldGoalsMade:      b.FieldGoalsMade * scale,
		FieldGoalsAttempted: b.FieldGoalsAttempted * scale,
		ThreesMade:          b.ThreesMade * scale,
	}, true
}

// Composite returns the weighted fantasy score of a box score.
func (w Weights) Composite(b BoxScore) float64 {
	return b.Points*w.Points +
		b.Assists*w.Assists +
		b.OffRebounds*w.OffRebounds +
		b.DefRebounds*w.DefRebounds +
		b.Steals*w.Steals +
		b.Blocks*w.Blocks +
		b.Turnovers*w.Turnovers
}

// IsOutlier reports whether a per-36 score exceeds the efficiency cutoff.
// A score exactly at the cutoff is kept.
func (w Weights) IsOutlier(per36Score float64) bool {
	return math.Abs(per36Score/PerMinuteBasis) > w.OutlierCutoff
}

// LastN returns the last n played records of an ascending history, still ascending.
// Records without minutes are skipped; the result never holds more than n records.
func LastN(records []*domain.PlayerGameRecord, n int) []*domain.PlayerGameRecord {
	if n <= 0 {
		return nil
	}
	out := make([]*domain.PlayerGameRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		if records[i].Played() {
			out = append(out, records[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Summary is the mean and coefficient of variation of a series.
// Mean is nil for an empty series; COV is nil when fewer than 2 values
// or when the mean is zero.
type Summary struct {
	Mean  *float64
	COV   *float64
	Count int
}

func summarize(values []float64) Summary {
	s := Summary{Count: len(values)}
	if mean, ok := metrics.Mean(values); ok {
		s.Mean = &mean
	}
	s.COV = metrics.CoefficientOfVariation(values)
	return s
}

// Scores returns the per-36 composite scores of the records, outliers excluded.
func (w Weights) Scores(records []*domain.PlayerGameRecord) []float64 {
	scores := make([]float64, 0, len(records))
	for _, r := range records {
		b, ok := Per36(r)
		if !ok {
			continue
		}
		score := w.Composite(b)
		if w.IsOutlier(score) {
			continue
		}
		scores = append(scores, score)
	}
	return scores
}

// ScoreStats summarizes the per-36 composite scores of the records.
func (w Weights) ScoreStats(records []*domain.PlayerGameRecord) Summary {
	return summarize(w.Scores(records))
}

// MinutesStats summarizes raw minutes of the played records. No outlier filter applies.
func MinutesStats(records []*domain.PlayerGameRecord) Summary {
	mins := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Played() {
			mins = append(mins, *r.Minutes)
		}
	}
	return summarize(mins)
}

// Window computes MA_n, MIN_n, MIN_COV_n and SCO_COV_n over the last n played
// records of an ascending history.
func (w Weights) Window(before []*domain.PlayerGameRecord, n int) domain.WindowFeatures {
	recent := LastN(before, n)
	score := w.ScoreStats(recent)
	mins := MinutesStats(recent)
	return domain.WindowFeatures{
		MeanScore:   metrics.RoundPtr(score.Mean, 2),
		MeanMinutes: metrics.RoundPtr(mins.Mean, 2),
		MinutesCOV:  metrics.RoundPtr(mins.COV, 3),
		ScoreCOV:    metrics.RoundPtr(score.COV, 3),
	}
}
