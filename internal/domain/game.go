package domain

import "time"

// Game represents a scheduled or played game.
// Corresponds to the games table (scoreboard game header).
type Game struct {
	GameID        string    // display game id, e.g. "0021700001"
	HomeTeamID    int64     // home team id
	VisitorTeamID int64     // visiting team id
	GameDate      time.Time // calendar date (US Eastern), zero if unknown
}

// Involves reports whether the team plays in this game.
func (g *Game) Involves(teamID int64) bool {
	return g.HomeTeamID == teamID || g.VisitorTeamID == teamID
}

// LocationOf returns the location of the team in this game and the opposing team id.
// ok is false if the team does not play in the game.
func (g *Game) LocationOf(teamID int64) (loc Location, opponent int64, ok bool) {
	switch teamID {
	case g.HomeTeamID:
		return LocationHome, g.VisitorTeamID, true
	case g.VisitorTeamID:
		return LocationAway, g.HomeTeamID, true
	}
	return "", 0, false
}
