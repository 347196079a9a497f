package features

import (
	"time"
	_ "time/tzdata" // America/New_York must resolve on hosts without zoneinfo

	"nba-seer/internal/domain"
)

// Temporal window sizes.
const (
	DensityWindow  = 5
	AffinityWindow = 20
	RecentWindow   = 40
)

// Eastern is the time zone the league schedules in.
const Eastern = "America/New_York"

// Clock returns the current instant.
type Clock func() time.Time

// EasternClock returns a clock reporting the current instant in US Eastern time.
func EasternClock() (Clock, error) {
	loc, err := time.LoadLocation(Eastern)
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// civilDate drops the time of day and zone, keeping the calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// GameDensity returns the number of calendar days spanned by the last n played
// games, inclusive. Nil when there are none or a date is unknown.
func GameDensity(before []*domain.PlayerGameRecord, n int) *int {
	recent := LastN(before, n)
	if len(recent) == 0 {
		return nil
	}
	lo, hi := recent[0].GameDate, recent[0].GameDate
	for _, r := range recent {
		if r.GameDate.IsZero() {
			return nil
		}
		if r.GameDate.Before(lo) {
			lo = r.GameDate
		}
		if r.GameDate.After(hi) {
			hi = r.GameDate
		}
	}
	days := daysBetween(lo, hi) + 1
	return &days
}

// DaysRest returns the full days between the last played game and today.
// A game yesterday gives 0. Nil when there is no played game or its date is unknown.
func DaysRest(before []*domain.PlayerGameRecord, today time.Time) *int {
	last := LastN(before, 1)
	if len(last) == 0 || last[0].GameDate.IsZero() {
		return nil
	}
	days := daysBetween(last[0].GameDate, today) - 1
	return &days
}

// LocationAffinity compares a player's mean score at home and away with the
// mean of recent games anywhere. Either ratio is nil when a mean is missing
// or the recent mean is zero. Values are not rounded.
func (w Weights) LocationAffinity(before []*domain.PlayerGameRecord) (home, away *float64) {
	var homeGames, awayGames []*domain.PlayerGameRecord
	for _, r := range before {
		switch r.Location {
		case domain.LocationHome:
			homeGames = append(homeGames, r)
		case domain.LocationAway:
			awayGames = append(awayGames, r)
		}
	}

	recent := w.ScoreStats(LastN(before, RecentWindow)).Mean
	if recent == nil || *recent == 0 {
		return nil, nil
	}
	return ratio(w.ScoreStats(LastN(homeGames, AffinityWindow)).Mean, *recent),
		ratio(w.ScoreStats(LastN(awayGames, AffinityWindow)).Mean, *recent)
}

func ratio(num *float64, den float64) *float64 {
	if num == nil {
		return nil
	}
	v := *num / den
	return &v
}
