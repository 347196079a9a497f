// Package verification checks that stored projection runs are reproducible:
// re-deriving every row from the game log must give the stored features.
package verification

import (
	"context"
	"math"

	"nba-seer/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // output column name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single projection.
type VerificationResult struct {
	Key         domain.RowKey
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for one run.
type VerificationReport struct {
	RunID     string
	Total     int // projections verified
	Matched   int
	Divergent int
	Results   []VerificationResult
}

// Verifier verifies stored runs.
type Verifier interface {
	// VerifyRun re-derives every projection stored under runID and compares
	// all output fields.
	VerifyRun(ctx context.Context, runID string) (*VerificationReport, error)
}

// CompareProjections compares two projections of the same row and returns
// divergences. Floats are compared within FloatTolerance; nil only matches nil.
func CompareProjections(stored, replayed *domain.PlayerProjection) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Key() != replayed.Key() {
		divergences = append(divergences, FieldDivergence{
			Field:    "PERSON_ID/GAME_ID",
			Expected: stored.Key(),
			Actual:   replayed.Key(),
		})
	}
	if stored.Row.Location != replayed.Row.Location {
		divergences = append(divergences, FieldDivergence{
			Field:    "Location",
			Expected: stored.Row.Location,
			Actual:   replayed.Row.Location,
		})
	}

	s, r := &stored.Features, &replayed.Features

	ints := []struct {
		field    string
		exp, act *int
	}{
		{"5_g_d", s.GameDensity5, r.GameDensity5},
		{"d_rest", s.DaysRest, r.DaysRest},
	}
	for _, c := range ints {
		if !intPtrEquals(c.exp, c.act) {
			divergences = append(divergences, FieldDivergence{Field: c.field, Expected: deref(c.exp), Actual: deref(c.act)})
		}
	}

	floats := []struct {
		field    string
		exp, act *float64
	}{
		{"MA_20", s.MA20, r.MA20},
		{"MA_10", s.MA10, r.MA10},
		{"MA_5", s.MA5, r.MA5},
		{"MIN_20", s.MIN20, r.MIN20},
		{"MIN_10", s.MIN10, r.MIN10},
		{"MIN_5", s.MIN5, r.MIN5},
		{"MIN_COV_20", s.MINCOV20, r.MINCOV20},
		{"MIN_COV_10", s.MINCOV10, r.MINCOV10},
		{"MIN_COV_5", s.MINCOV5, r.MINCOV5},
		{"SCO_COV_20", s.SCOCOV20, r.SCOCOV20},
		{"SCO_COV_10", s.SCOCOV10, r.SCOCOV10},
		{"SCO_COV_5", s.SCOCOV5, r.SCOCOV5},
		{"home_aff", s.HomeAffinity, r.HomeAffinity},
		{"away_aff", s.AwayAffinity, r.AwayAffinity},
		{"EXP_SCO", s.ExpectedScore, r.ExpectedScore},
		{"EXP_SCO_L", s.ExpectedScoreLocation, r.ExpectedScoreLocation},
	}
	for _, c := range floats {
		if !floatPtrEquals(c.exp, c.act) {
			divergences = append(divergences, FieldDivergence{Field: c.field, Expected: deref(c.exp), Actual: deref(c.act)})
		}
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}

func intPtrEquals(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// deref returns the pointed-to value, or nil.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
