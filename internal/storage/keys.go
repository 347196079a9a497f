package storage

import (
	"sort"
	"time"

	"nba-seer/internal/domain"
)

// DateLayout is the calendar date layout used by every backend.
const DateLayout = "2006-01-02"

// SameDate reports whether a and b fall on the same calendar date, ignoring location.
func SameDate(a, b time.Time) bool {
	return a.Format(DateLayout) == b.Format(DateLayout)
}

// ValidRecord checks the invariants every backend enforces before insert.
func ValidRecord(r *domain.PlayerGameRecord) bool {
	if r == nil || r.PlayerID == 0 || r.GameID == "" || r.GameIDSortable == "" {
		return false
	}
	return r.Location.IsValid()
}

// ValidProjection checks the invariants every backend enforces before insert.
func ValidProjection(p *domain.PlayerProjection) bool {
	return p != nil && p.RunID != "" && p.Row.PersonID != 0 && p.Row.GameID != ""
}

// SortProjections orders projections by (game_id, person_id) ASC.
func SortProjections(projections []*domain.PlayerProjection) {
	sort.Slice(projections, func(i, j int) bool {
		a, b := projections[i].Row, projections[j].Row
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		return a.PersonID < b.PersonID
	})
}
