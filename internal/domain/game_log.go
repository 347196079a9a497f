package domain

import "time"

// PlayerGameRecord represents one player's box score line for one game.
// Corresponds to the game_logs table. (PlayerID, GameID) is unique.
type PlayerGameRecord struct {
	PlayerID       int64    // player id
	TeamID         int64    // team the player played for
	GameID         string   // display game id
	GameIDSortable string   // chronologically sortable game id (see SortableGameID)
	OpposingTeamID int64    // opponent team id, 0 if unknown
	Location       Location // HOME | AWAY
	Minutes        *float64 // minutes played, NULL if the player did not play

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

	GameDate time.Time // calendar date of the game (US Eastern)
}

// Played reports whether minutes were recorded for the game.
func (r *PlayerGameRecord) Played() bool {
	return r.Minutes != nil
}
