package backtest

import (
	"math"
	"testing"

	"nba-seer/internal/domain"
	"nba-seer/internal/features"
)

func ptr(v float64) *float64 { return &v }

func projection(personID int64, gameID string, expected *float64) *domain.PlayerProjection {
	return &domain.PlayerProjection{
		Row:      domain.PlayerQueryRow{PersonID: personID, GameID: gameID, Location: domain.LocationHome},
		Features: domain.DerivedFeatureSet{ExpectedScoreLocation: expected},
	}
}

func played(personID int64, gameID string, minutes *float64, points, assists float64) *domain.PlayerGameRecord {
	return &domain.PlayerGameRecord{
		PlayerID: personID,
		GameID:   gameID,
		Minutes:  minutes,
		Points:   points,
		Assists:  assists,
	}
}

func TestEvaluate(t *testing.T) {
	projections := []*domain.PlayerProjection{
		projection(1, "0021700500", ptr(30)),
		projection(2, "0021700500", ptr(20)),
		projection(3, "0021700500", nil),     // no EXP_SCO_L
		projection(4, "0021700500", ptr(10)), // did not play
		projection(5, "0021700500", ptr(15)), // no box score
	}
	records := []*domain.PlayerGameRecord{
		played(1, "0021700500", ptr(34), 20, 4), // actual 26, error +4
		played(2, "0021700500", ptr(28), 22, 4), // actual 28, error -8
		played(3, "0021700500", ptr(30), 10, 0),
		played(4, "0021700500", nil, 0, 0),
	}

	ev := Evaluate(projections, records, features.DefaultWeights)

	if ev.Count != 2 {
		t.Fatalf("Count = %d, want 2", ev.Count)
	}
	if ev.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", ev.Skipped)
	}
	if math.Abs(ev.MAE-6) > 1e-9 {
		t.Errorf("MAE = %v, want 6", ev.MAE)
	}
	if math.Abs(ev.Bias-(-2)) > 1e-9 {
		t.Errorf("Bias = %v, want -2", ev.Bias)
	}
	if math.Abs(ev.RMSE-math.Sqrt(40)) > 1e-9 {
		t.Errorf("RMSE = %v, want sqrt(40)", ev.RMSE)
	}
	if ev.ErrorStddev == nil || math.Abs(*ev.ErrorStddev-math.Sqrt(72)) > 1e-9 {
		t.Errorf("ErrorStddev = %v, want sqrt(72)", ev.ErrorStddev)
	}
	if ev.Rows[0].PersonID != 2 {
		t.Errorf("rows must be ordered by absolute error, got first %d", ev.Rows[0].PersonID)
	}
	if ev.Rows[1].Actual != 26 {
		t.Errorf("actual = %v, want raw composite 26", ev.Rows[1].Actual)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	ev := Evaluate(nil, nil, features.DefaultWeights)
	if ev.Count != 0 || ev.MAE != 0 || ev.ErrorStddev != nil {
		t.Errorf("unexpected evaluation of empty input: %+v", ev)
	}
}

func TestMerge(t *testing.T) {
	w := features.DefaultWeights
	first := Evaluate(
		[]*domain.PlayerProjection{projection(1, "0021700500", ptr(30))},
		[]*domain.PlayerGameRecord{played(1, "0021700500", ptr(34), 20, 4)}, // error +4
		w,
	)
	second := Evaluate(
		[]*domain.PlayerProjection{
			projection(2, "0021700510", ptr(20)),
			projection(3, "0021700510", nil),
		},
		[]*domain.PlayerGameRecord{played(2, "0021700510", ptr(28), 22, 4)}, // error -8
		w,
	)

	merged := Merge(first, nil, second)
	if merged.Count != 2 || merged.Skipped != 1 {
		t.Fatalf("count=%d skipped=%d, want 2 and 1", merged.Count, merged.Skipped)
	}
	if math.Abs(merged.MAE-6) > 1e-9 {
		t.Errorf("MAE = %v, want 6", merged.MAE)
	}
	if math.Abs(merged.Bias+2) > 1e-9 {
		t.Errorf("Bias = %v, want -2", merged.Bias)
	}
	if merged.Rows[0].PersonID != 2 {
		t.Errorf("largest error first, got person %d", merged.Rows[0].PersonID)
	}
	if merged.ErrorStddev == nil {
		t.Error("expected error stddev with 2 rows")
	}

	if empty := Merge(); empty.Count != 0 || empty.ErrorStddev != nil {
		t.Errorf("empty merge: %+v", empty)
	}
}
