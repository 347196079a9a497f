// Package scoring filters degenerate feature rows and computes the expected
// fantasy score of the survivors.
package scoring

import (
	"nba-seer/internal/domain"
	"nba-seer/internal/features"
	"nba-seer/internal/metrics"
)

// IsDegenerate reports whether a row lacks usable score variation over the
// last 20 games. Such rows carry no signal and are dropped.
func IsDegenerate(fs *domain.DerivedFeatureSet) bool {
	return fs == nil || fs.SCOCOV20 == nil || *fs.SCOCOV20 <= 0
}

// ExpectedScore returns mean(MA_20, MA_10, MA_5) * mean(MIN_20, MIN_10, MIN_5) / 36,
// rounded to 2 places. Missing members are skipped; nil if either mean is undefined.
func ExpectedScore(fs *domain.DerivedFeatureSet) *float64 {
	ma := metrics.MeanOfPresent(fs.MA20, fs.MA10, fs.MA5)
	mins := metrics.MeanOfPresent(fs.MIN20, fs.MIN10, fs.MIN5)
	if ma == nil || mins == nil {
		return nil
	}
	v := *ma * *mins / features.PerMinuteBasis
	return metrics.RoundPtr(&v, 2)
}

// ExpectedScoreAt scales the expected score by the affinity for the row's location.
func ExpectedScoreAt(expected *float64, loc domain.Location, fs *domain.DerivedFeatureSet) *float64 {
	aff := fs.AwayAffinity
	if loc == domain.LocationHome {
		aff = fs.HomeAffinity
	}
	if expected == nil || aff == nil {
		return nil
	}
	v := *expected * *aff
	return &v
}

// Aggregate drops degenerate projections and fills EXP_SCO and EXP_SCO_L on the
// rest. Input projections are not modified; survivors are returned as copies in
// input order along with the number dropped.
func Aggregate(projections []*domain.PlayerProjection) (survivors []*domain.PlayerProjection, dropped int) {
	survivors = make([]*domain.PlayerProjection, 0, len(projections))
	for _, p := range projections {
		if p == nil || IsDegenerate(&p.Features) {
			dropped++
			continue
		}
		c := *p
		c.Features.ExpectedScore = ExpectedScore(&c.Features)
		c.Features.ExpectedScoreLocation = ExpectedScoreAt(c.Features.ExpectedScore, c.Row.Location, &c.Features)
		survivors = append(survivors, &c)
	}
	return survivors, dropped
}
