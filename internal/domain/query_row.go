package domain

// PlayerQueryRow is a scheduled, not-yet-played player/game pairing.
// Produced by the roster resolver and consumed by every feature deriver.
type PlayerQueryRow struct {
	PersonID       int64
	TeamID         int64
	Location       Location
	GameID         string // display game id
	OpposingTeamID int64

	// Live mode only, empty for backtest rows.
	DisplayFirstLast string
	TeamAbbreviation string
}

// RowKey identifies a row in the output table.
type RowKey struct {
	PersonID int64
	GameID   string
}

// Key returns the (PersonID, GameID) key of the row.
func (r *PlayerQueryRow) Key() RowKey {
	return RowKey{PersonID: r.PersonID, GameID: r.GameID}
}
